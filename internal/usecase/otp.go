package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
)

const (
	DefaultOTPTTL    = 10 * time.Minute
	defaultOTPLength = 6
)

// OTPEngine mints and checks one-time codes. It never delivers them.
type OTPEngine struct {
	repo   repository.OTPRepository
	ttl    time.Duration
	length int
	now    func() time.Time
}

func NewOTPEngine(repo repository.OTPRepository, ttl time.Duration) *OTPEngine {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPEngine{
		repo:   repo,
		ttl:    ttl,
		length: defaultOTPLength,
		now:    time.Now,
	}
}

// WithClock replaces the engine's time source.
func (e *OTPEngine) WithClock(now func() time.Time) *OTPEngine {
	e.now = now
	return e
}

func (e *OTPEngine) TTL() time.Duration { return e.ttl }

// Issue generates a fresh code, replacing whatever code the identity held for purpose.
// Reissuing goes through the same path.
func (e *OTPEngine) Issue(ctx context.Context, identityID string, purpose domain.Purpose) (string, time.Time, error) {
	code, err := generateCode(e.length)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}

	now := e.now()
	expiresAt := now.Add(e.ttl)
	err = e.repo.Put(ctx, &domain.OneTimeCode{
		IdentityID: identityID,
		Purpose:    purpose,
		CodeHash:   hashCode(code),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("store code: %w", err)
	}
	return code, expiresAt, nil
}

// Validate consumes the code on success. A second call with the same code
// fails with domain.ErrOTPNotFound.
func (e *OTPEngine) Validate(ctx context.Context, identityID string, purpose domain.Purpose, candidate string) error {
	return e.repo.Claim(ctx, identityID, purpose, hashCode(candidate), e.now())
}

// Check reports the same failures as Validate but leaves the code in place.
func (e *OTPEngine) Check(ctx context.Context, identityID string, purpose domain.Purpose, candidate string) error {
	c, err := e.repo.Get(ctx, identityID, purpose)
	if err != nil {
		return err
	}
	if c.Expired(e.now()) {
		return domain.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(c.CodeHash), []byte(hashCode(candidate))) != 1 {
		return domain.ErrOTPMismatch
	}
	return nil
}

// SweepExpired removes every code past its expiry.
func (e *OTPEngine) SweepExpired(ctx context.Context) (int, error) {
	n, err := e.repo.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired codes: %w", err)
	}
	return n, nil
}

func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func hashCode(code string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(code)))
}
