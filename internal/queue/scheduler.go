package queue

import (
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/streamkit/stream-announcer-go/internal/config"
)

// Scheduler enqueues the recurring system tasks at their configured cadence.
// Tasks land on the system queue where a single-worker server processes them,
// so a slow cycle delays the next one instead of overlapping it.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler builds the scheduler and registers every recurring task.
func NewScheduler(redisURL string, cfg *config.PollerConfig) (*Scheduler, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	entries := []struct {
		taskType string
		interval time.Duration
	}{
		{TypeCheckStreams, cfg.CheckInterval},
		{TypeSyncTeams, cfg.TeamSyncInterval},
		{TypeSyncUsers, cfg.UserSyncInterval},
		{TypeCollectServerStats, cfg.StatsInterval},
	}

	for _, e := range entries {
		entryID, err := scheduler.Register(
			fmt.Sprintf("@every %s", e.interval),
			asynq.NewTask(e.taskType, nil),
			asynq.Queue(QueueSystem),
			asynq.MaxRetry(0),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.taskType, err)
		}
		log.Printf("[Scheduler] Registered %s every %s (entry=%s)", e.taskType, e.interval, entryID)
	}

	return &Scheduler{scheduler: scheduler}, nil
}

// Start runs the scheduler in its own goroutines and returns immediately.
func (s *Scheduler) Start() error {
	log.Println("[Scheduler] Starting system task scheduler...")
	return s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for in-flight enqueues.
func (s *Scheduler) Stop() {
	log.Println("[Scheduler] Shutting down system task scheduler...")
	s.scheduler.Shutdown()
}
