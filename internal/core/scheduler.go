package core

// scheduler.go runs background maintenance for staged uploads.
//
// ImportUsers always deletes its staged file, but a crash between save and
// delete leaves the file behind. The sweeper removes such leftovers once
// they are older than any import could legitimately run. Sweep failures are
// logged and retried on the next tick; they never stop the service.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig controls the staged-upload sweeper.
type SweepConfig struct {
	MaxAge   time.Duration // Files older than this are removed
	Interval time.Duration // How often to sweep
}

// StartUploadSweeper sweeps immediately, then every cfg.Interval until ctx is cancelled.
func (s *Service) StartUploadSweeper(ctx context.Context, cfg SweepConfig) {
	if cfg.Interval <= 0 || cfg.MaxAge <= 0 {
		slog.Warn("upload sweeper disabled", "interval", cfg.Interval, "max_age", cfg.MaxAge)
		return
	}

	slog.Info("upload sweeper started", "interval", cfg.Interval, "max_age", cfg.MaxAge)

	s.sweepUploads(cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("upload sweeper stopped")
			return
		case <-ticker.C:
			s.sweepUploads(cfg.MaxAge)
		}
	}
}

func (s *Service) sweepUploads(maxAge time.Duration) {
	start := time.Now()
	removed, err := s.files.SweepStale(maxAge)
	if err != nil {
		slog.Error("upload sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("removed stale uploads",
			"files_removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
