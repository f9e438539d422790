package retry

import (
	"context"
	"errors"
	"time"

	"borewell/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Worker polls for due retry jobs and executes them.
type Worker struct {
	svc      Service
	interval time.Duration
	batch    int
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewWorker creates a worker for svc.
func NewWorker(svc Service, cfg WorkerConfig, log *zap.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	return &Worker{
		svc:      svc,
		interval: cfg.Interval,
		batch:    cfg.BatchSize,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		logger:   logger.OrNop(log).Named("retry_worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("retry worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retry worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("retry poll failed", zap.Error(err))
			}
		}
	}
}

// RunOnce claims one batch of due jobs and executes them. It returns the
// number of jobs executed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.svc.ClaimDue(ctx, w.batch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, job := range jobs {
		if err := w.limiter.Wait(ctx); err != nil {
			return done, err
		}
		if _, err := w.svc.Execute(ctx, job.ID); err != nil {
			w.logger.Error("retry job failed", zap.Uint("job_id", job.ID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
