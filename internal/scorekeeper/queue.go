package scorekeeper

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// syncTask is one queued durable write. It is retried until it returns
// nil; transient store failures never surface past the queue.
type syncTask func(ctx context.Context) error

// syncQueue drains tasks one at a time in strict submission order. The
// head task stays at the head until it succeeds; a failure delays the
// next attempt by retryDelay without advancing the queue, so a store
// outage stalls synchronization without reordering or losing writes.
type syncQueue struct {
	clock      clockwork.Clock
	retryDelay time.Duration

	mu    sync.Mutex
	cond  *sync.Cond
	tasks []syncTask
	wake  chan struct{}
}

func newSyncQueue(clock clockwork.Clock, retryDelay time.Duration) *syncQueue {
	q := &syncQueue{
		clock:      clock,
		retryDelay: retryDelay,
		wake:       make(chan struct{}, 1),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// enqueue appends a task. The queue is unbounded; callers watch Len to
// surface long outages.
func (q *syncQueue) enqueue(t syncTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len reports the current backlog, including the task being attempted.
func (q *syncQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush blocks until the queue is fully drained or the context ends.
func (q *syncQueue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	stop := make(chan struct{})
	go func() {
		defer close(done)
		q.mu.Lock()
		defer q.mu.Unlock()
		for len(q.tasks) > 0 {
			select {
			case <-stop:
				return
			default:
			}
			q.cond.Wait()
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// Wake the waiter so it observes stop and exits rather than
		// staying parked on the cond.
		close(stop)
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

// run is the single consumer loop. It exits when ctx is cancelled.
func (q *syncQueue) run(ctx context.Context) {
	for {
		t, ok := q.head(ctx)
		if !ok {
			return
		}

		attempt := 1
		for {
			err := t(ctx)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}

			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("backlog", q.Len()).
				Msg("sync task failed, retrying")
			attempt++

			select {
			case <-ctx.Done():
				return
			case <-q.clock.After(q.retryDelay):
			}
		}

		q.pop()
	}
}

// head blocks until a task is available and returns it without removing
// it from the queue.
func (q *syncQueue) head(ctx context.Context) (syncTask, bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.mu.Unlock()
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.wake:
		}
	}
}

func (q *syncQueue) pop() {
	q.mu.Lock()
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}
