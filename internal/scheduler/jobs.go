package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	appanalysis "github.com/vericlause/vericlause-ai/internal/application/analysis"
	"github.com/vericlause/vericlause-ai/internal/middleware"
)

// PurgeJob permanently removes records whose retention window has lapsed.
type PurgeJob struct {
	svc    *appanalysis.Service
	logger *zap.Logger
}

func NewPurgeJob(svc *appanalysis.Service, logger *zap.Logger) *PurgeJob {
	return &PurgeJob{svc: svc, logger: logger}
}

// Run implements cron.Job.
func (j *PurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := j.svc.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("retention purge failed", zap.Error(err))
		return
	}
	middleware.AddRecordsPurged(uint64(n))
	j.logger.Info("retention purge completed", zap.Int64("purged", n))
}
