// AngelaMos | 2026
// sweeper.go

package auth

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes expired refresh token rows on an interval. Blacklist
// entries need no sweeping; Redis drops them when their TTL lapses.
type Sweeper struct {
	repo     Repository
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(
	repo Repository,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("token sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepNow(ctx); err != nil {
				s.logger.Error("token sweep failed", "error", err)
			}
		}
	}
}

// SweepNow runs a single sweep and reports how many rows went away.
func (s *Sweeper) SweepNow(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("expired refresh tokens removed", "count", deleted)
	}

	return deleted, nil
}
