package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is anything that can be asked to reload its first page.
type Refresher interface {
	Refresh()
}

// Scheduler re-triggers refreshes on an interval so long-running daemons
// keep their caches warm. The startup refresh is not scheduled here; each
// stream decides that itself from cache freshness.
type Scheduler struct {
	refreshers []Refresher
	interval   time.Duration
	logger     *slog.Logger
}

func NewScheduler(refreshers []Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refreshers: refreshers,
		interval:   interval,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "streams", len(s.refreshers))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			for _, r := range s.refreshers {
				r.Refresh()
			}
		}
	}
}
