package usecase

import (
	"context"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
)

// OTPGuard throttles code issuance and validation attempts. Implementations
// return an error wrapping domain.ErrTooManyRequests when a limit is hit.
type OTPGuard interface {
	BeforeIssue(ctx context.Context, identityID string, purpose domain.Purpose) error
	BeforeAttempt(ctx context.Context, identityID string, purpose domain.Purpose) error
	Reset(ctx context.Context, identityID string, purpose domain.Purpose)
}

// NoopGuard never throttles; used when Redis is not configured.
type NoopGuard struct{}

func (NoopGuard) BeforeIssue(context.Context, string, domain.Purpose) error   { return nil }
func (NoopGuard) BeforeAttempt(context.Context, string, domain.Purpose) error { return nil }
func (NoopGuard) Reset(context.Context, string, domain.Purpose)               {}
