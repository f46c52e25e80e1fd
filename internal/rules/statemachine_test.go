package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openside/scorekeeper/internal/models"
)

func TestNextCoversEveryLegalTransition(t *testing.T) {
	tests := []struct {
		name      string
		structure models.GameStructure
		status    models.GameStatus
		period    int
		wantLabel string
		wantTo    models.GameStatus
		wantP     int
	}{
		{"kick off single period", models.StructureSinglePeriod, models.StatusNotStarted, 0, "Kick Off", models.StatusInProgress, 1},
		{"end single period game", models.StructureSinglePeriod, models.StatusInProgress, 1, "End Game", models.StatusFinished, 1},

		{"kick off halves", models.StructureTwoHalves, models.StatusNotStarted, 0, "Kick Off", models.StatusInProgress, 1},
		{"end first half", models.StructureTwoHalves, models.StatusInProgress, 1, "End First Half", models.StatusHalfTime, 1},
		{"start second half", models.StructureTwoHalves, models.StatusHalfTime, 1, "Start Second Half", models.StatusInProgress, 2},
		{"end halves game", models.StructureTwoHalves, models.StatusInProgress, 2, "End Game", models.StatusFinished, 2},

		{"kick off quarters", models.StructureFourQuarters, models.StatusNotStarted, 0, "Kick Off", models.StatusInProgress, 1},
		{"end q1", models.StructureFourQuarters, models.StatusInProgress, 1, "End Q1", models.StatusQuarterBreak, 1},
		{"start q2", models.StructureFourQuarters, models.StatusQuarterBreak, 1, "Start Q2", models.StatusInProgress, 2},
		{"half time", models.StructureFourQuarters, models.StatusInProgress, 2, "Half Time", models.StatusHalfTime, 2},
		{"start q3", models.StructureFourQuarters, models.StatusHalfTime, 2, "Start Q3", models.StatusInProgress, 3},
		{"end q3", models.StructureFourQuarters, models.StatusInProgress, 3, "End Q3", models.StatusQuarterBreak, 3},
		{"start q4", models.StructureFourQuarters, models.StatusQuarterBreak, 3, "Start Q4", models.StatusInProgress, 4},
		{"end quarters game", models.StructureFourQuarters, models.StatusInProgress, 4, "End Game", models.StatusFinished, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Next(tt.structure, tt.status, tt.period)
			require.True(t, ok)
			require.Equal(t, tt.wantLabel, got.Label)
			require.Equal(t, tt.wantTo, got.ToStatus)
			require.Equal(t, tt.wantP, got.ToPeriod)
		})
	}
}

func TestNextIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		got, ok := Next(models.StructureFourQuarters, models.StatusQuarterBreak, 1)
		require.True(t, ok)
		require.Equal(t, "Start Q2", got.Label)
	}
}

func TestNextTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		structure models.GameStructure
		status    models.GameStatus
		period    int
	}{
		{"finished halves", models.StructureTwoHalves, models.StatusFinished, 2},
		{"finished quarters", models.StructureFourQuarters, models.StatusFinished, 4},
		{"finished single", models.StructureSinglePeriod, models.StatusFinished, 1},
		{"unreachable period", models.StructureTwoHalves, models.StatusInProgress, 3},
		{"half time in single period", models.StructureSinglePeriod, models.StatusHalfTime, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Next(tt.structure, tt.status, tt.period)
			require.False(t, ok)
		})
	}
}

func TestKickOffMatchesAnyPeriod(t *testing.T) {
	for _, period := range []int{0, 1, 7} {
		got, ok := Next(models.StructureTwoHalves, models.StatusNotStarted, period)
		require.True(t, ok)
		require.Equal(t, TagKickOff, got.Tag)
	}
}

func TestNoHalvesAliasesSinglePeriod(t *testing.T) {
	got, ok := Next(models.StructureNoHalves, models.StatusInProgress, 1)
	require.True(t, ok)
	require.Equal(t, TagEndGame, got.Tag)
	require.Equal(t, models.StatusFinished, got.ToStatus)
}

func TestStateAfterInvertsEveryTag(t *testing.T) {
	for structure, ts := range transitions {
		for _, tr := range ts {
			status, period, ok := StateAfter(structure, tr.Tag)
			require.True(t, ok, "tag %s in %s", tr.Tag, structure)
			require.Equal(t, tr.ToStatus, status)
			require.Equal(t, tr.ToPeriod, period)
		}
	}
}

func TestStateAfterUnknownTag(t *testing.T) {
	_, _, ok := StateAfter(models.StructureTwoHalves, "bogus")
	require.False(t, ok)
}

func TestCanScore(t *testing.T) {
	require.True(t, CanScore(models.StatusInProgress))
	require.False(t, CanScore(models.StatusNotStarted))
	require.False(t, CanScore(models.StatusHalfTime))
	require.False(t, CanScore(models.StatusQuarterBreak))
	require.False(t, CanScore(models.StatusFinished))
}
