package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
)

// OTPRepository stores one slot per (identity, purpose).
type OTPRepository interface {
	// Put overwrites any existing slot for the same identity and purpose.
	Put(ctx context.Context, code *domain.OneTimeCode) error
	Get(ctx context.Context, identityID string, purpose domain.Purpose) (*domain.OneTimeCode, error)
	// Claim deletes the slot only if codeHash matches and the code is not expired at now.
	// The match and the delete are a single atomic step. On failure it reports
	// domain.ErrOTPNotFound, domain.ErrOTPExpired or domain.ErrOTPMismatch.
	Claim(ctx context.Context, identityID string, purpose domain.Purpose, codeHash string, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
