package service

import (
	"context"
	"time"

	"github.com/mattressworks/stockboard/pkg/logger"
)

// RefreshScheduler rebuilds the dashboard snapshot periodically
type RefreshScheduler struct {
	dashboard *DashboardService
	interval  time.Duration
	logger    *logger.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(dashboard *DashboardService, interval time.Duration, log *logger.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		dashboard: dashboard,
		interval:  interval,
		logger:    log.WithComponent("scheduler"),
	}
}

// Start runs an immediate refresh and then one per interval in a background goroutine.
// With a non-positive interval only the immediate refresh runs.
func (s *RefreshScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("refresh scheduler started")

		s.runRefresh(ctx)

		if s.interval <= 0 {
			s.logger.Warn().Dur("interval", s.interval).Msg("non-positive refresh interval, periodic refresh disabled")
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("refresh scheduler stopped")
				return
			case <-ticker.C:
				s.runRefresh(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for the running refresh to return
func (s *RefreshScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *RefreshScheduler) runRefresh(ctx context.Context) {
	start := time.Now()
	if err := s.dashboard.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error().Err(err).Msg("scheduled refresh failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("scheduled refresh completed")
}
