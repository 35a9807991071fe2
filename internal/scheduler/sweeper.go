package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/metrics"
	"github.com/robfig/cron/v3"
)

type expiredCodeSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically deletes expired one-time codes. Running it on several
// instances is harmless: the delete is idempotent.
type Sweeper struct {
	otp      expiredCodeSweeper
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewSweeper(otp expiredCodeSweeper, schedule string, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		otp:      otp,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   logger.With("component", "otp_sweeper"),
	}
}

// Start blocks until ctx is cancelled and any in-flight sweep has finished.
func (s *Sweeper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", s.schedule, err)
	}

	s.logger.Info("sweeper started", "schedule", s.schedule)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper shut down")
	return nil
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.otp.SweepExpired(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sweep expired codes", "error", err)
		return
	}
	if n > 0 {
		metrics.OTPSweptTotal.Add(float64(n))
		s.logger.InfoContext(ctx, "swept expired codes", "count", n)
	}
}
