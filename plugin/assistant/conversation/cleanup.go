package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultCleanupInterval is the default interval between sweep runs.
const DefaultCleanupInterval = time.Hour

// CleanupJob periodically removes expired non-threaded contexts. It only
// ever deletes rows matched by a timestamp predicate, so it needs no
// coordination with in-flight message handling: a concurrent lookup on a
// freshly deleted row simply creates a new one.
type CleanupJob struct {
	contexts Service
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(contexts Service, interval time.Duration) *CleanupJob {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupJob{
		contexts: contexts,
		interval: interval,
	}
}

// Start begins the periodic sweep in a goroutine. It is non-blocking and
// idempotent.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx)

	slog.Info("context cleanup job started", "interval", j.interval)
}

// Stop stops the sweep.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("context cleanup job stopped")
}

// RunOnce executes a single sweep immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.contexts.CleanupExpired(ctx)
}

// IsRunning reports whether the sweep is currently scheduled.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopChan:
			return
		case <-ticker.C:
			if removed, err := j.contexts.CleanupExpired(ctx); err != nil {
				slog.Error("context cleanup failed", "error", err)
			} else if removed > 0 {
				slog.Info("context cleanup completed", "removed", removed)
			}
		}
	}
}
