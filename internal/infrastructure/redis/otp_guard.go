package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

type OTPGuardConfig struct {
	// Cooldown is the minimum gap between two codes for the same identity and purpose.
	Cooldown time.Duration
	// MaxAttempts bounds validation attempts against one live code.
	MaxAttempts int
	// AttemptWindow should match the code TTL.
	AttemptWindow time.Duration
}

// OTPGuard throttles code issuance and guessing. Redis failures are logged
// and let the request through.
type OTPGuard struct {
	client   *goredis.Client
	attempts *Counter
	cfg      OTPGuardConfig
	logger   *slog.Logger
}

func NewOTPGuard(client *goredis.Client, cfg OTPGuardConfig, logger *slog.Logger) *OTPGuard {
	return &OTPGuard{
		client:   client,
		attempts: NewCounter(client, "otp:attempts"),
		cfg:      cfg,
		logger:   logger.With("component", "otp_guard"),
	}
}

func (g *OTPGuard) BeforeIssue(ctx context.Context, identityID string, purpose domain.Purpose) error {
	if g.cfg.Cooldown <= 0 {
		return nil
	}
	ok, err := g.client.SetNX(ctx, cooldownKey(identityID, purpose), 1, g.cfg.Cooldown).Result()
	if err != nil {
		g.logger.WarnContext(ctx, "cooldown check failed, allowing", "purpose", purpose, "error", err)
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: wait before requesting another code", domain.ErrTooManyRequests)
	}
	return nil
}

func (g *OTPGuard) BeforeAttempt(ctx context.Context, identityID string, purpose domain.Purpose) error {
	if g.cfg.MaxAttempts <= 0 {
		return nil
	}
	ok, err := g.attempts.Allow(ctx, slotKey(identityID, purpose), g.cfg.MaxAttempts, g.cfg.AttemptWindow)
	if err != nil {
		g.logger.WarnContext(ctx, "attempt check failed, allowing", "purpose", purpose, "error", err)
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: too many attempts, request a new code", domain.ErrTooManyRequests)
	}
	return nil
}

// Reset clears the attempt counter; the cooldown is left to expire on its own.
func (g *OTPGuard) Reset(ctx context.Context, identityID string, purpose domain.Purpose) {
	if err := g.attempts.Clear(ctx, slotKey(identityID, purpose)); err != nil {
		g.logger.WarnContext(ctx, "reset attempts", "purpose", purpose, "error", err)
	}
}

func slotKey(identityID string, purpose domain.Purpose) string {
	return string(purpose) + ":" + identityID
}

func cooldownKey(identityID string, purpose domain.Purpose) string {
	return "otp:cooldown:" + slotKey(identityID, purpose)
}
