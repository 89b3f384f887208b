package core

// scheduler.go provides the periodic full reload of the source.
//
// The scheduler is long-running and context-aware for graceful shutdown.
// It logs failures but never stops on them; the previous snapshot stays
// current until a reload succeeds.

import (
	"context"
	"log/slog"
	"time"
)

// StartReloadScheduler reloads the dataset every interval until ctx is
// cancelled. It does not load immediately; callers do the initial Reload
// themselves so startup can fail fast. A non-positive interval returns at once.
func (s *Service) StartReloadScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.logger.Info("reload scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			s.runReloadJob(ctx)
		}
	}
}

// runReloadJob performs one scheduled reload.
func (s *Service) runReloadJob(ctx context.Context) {
	start := time.Now()
	snap, err := s.Reload(ctx)
	if err != nil {
		s.logger.Error("scheduled reload failed", "error", err)
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "scheduled reload completed",
		slog.String("snapshot", snap.ID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
