package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New registers the purge job under the given cron expression.
func New(purgeJob *PurgeJob, purgeSpec string, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddJob(purgeSpec, purgeJob); err != nil {
		return nil, err
	}
	logger.Info("retention purge job registered", zap.String("schedule", purgeSpec))
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins scheduling. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish, bounded by a timeout.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.logger.Info("scheduler stopped")
	case <-time.After(10 * time.Second):
		s.logger.Warn("scheduler stop timed out; a job may still be running")
	}
}
