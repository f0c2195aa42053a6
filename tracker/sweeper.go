package tracker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the recovery policy for the non-atomic write sequence: a crash
// between writes leaves a record stuck in pending or processing forever, so
// records unsettled past the deadline are swept to failed.
type Sweeper struct {
	tracker  *Tracker
	deadline time.Duration
	interval time.Duration
	log      *zap.Logger
}

var errSweptStuck = errors.New("processing deadline exceeded")

func NewSweeper(t *Tracker, deadline, interval time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{tracker: t, deadline: deadline, interval: interval, log: log}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepStuck(ctx); err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// SweepStuck fails every record still unsettled past the deadline and
// returns how many were swept. A record that settles between the listing and
// the conditional write is skipped, not an error.
func (s *Sweeper) SweepStuck(ctx context.Context) (int, error) {
	cutoff := s.tracker.now().Add(-s.deadline).Unix()

	stuck, err := s.tracker.store.ListUnsettledBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, record := range stuck {
		if err := s.tracker.Fail(ctx, record.ID, errSweptStuck); err != nil {
			if errors.Is(err, ErrStatusConflict) {
				continue
			}
			return swept, err
		}
		swept++
		s.log.Info("swept stuck record",
			zap.String("record_id", record.ID),
			zap.String("was_status", string(record.Status)))
	}
	return swept, nil
}
