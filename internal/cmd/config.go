package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Sync struct {
		RetryDelay        time.Duration `yaml:"retry_delay"`
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	} `yaml:"sync"`
	Viewer struct {
		RefreshInterval    time.Duration `yaml:"refresh_interval"`
		StalenessThreshold time.Duration `yaml:"staleness_threshold"`
	} `yaml:"viewer"`
	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	var config Config
	config.Server.Port = "8080"
	config.Sync.RetryDelay = 2 * time.Second
	config.Sync.HeartbeatInterval = 30 * time.Second
	config.Viewer.RefreshInterval = 10 * time.Second
	config.Viewer.StalenessThreshold = 60 * time.Second
	config.NATS.URL = nats.DefaultURL
	return &config
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Server.Port = getEnv("PORT", config.Server.Port); config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		config.NATS.URL = url
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
