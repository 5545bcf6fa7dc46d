package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ReservationExpirer interface {
	ExpireReservations(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically releases expired reservations back to the
// ledger. Expiry is eventual: a reservation past its TTL still counts
// as reserved until a sweep runs.
type Sweeper struct {
	expirer  ReservationExpirer
	interval time.Duration
	logger   *zap.Logger
}

func New(expirer ReservationExpirer, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("reservation sweeper started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reservation sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	processed, err := s.expirer.ExpireReservations(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("reservation sweep failed", zap.Int("processed", processed), zap.Error(err))
		return
	}
	if processed > 0 {
		s.logger.Info("expired reservations released", zap.Int("processed", processed))
	}
}
