package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

func (r *OTPRepository) Put(ctx context.Context, c *domain.OneTimeCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO one_time_codes (identity_id, purpose, code_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id, purpose) DO UPDATE
		SET code_hash  = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()`,
		c.IdentityID, c.Purpose, c.CodeHash, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("put one-time code: %w", err)
	}
	return nil
}

func (r *OTPRepository) Get(ctx context.Context, identityID string, purpose domain.Purpose) (*domain.OneTimeCode, error) {
	if uuid.Validate(identityID) != nil {
		return nil, domain.ErrOTPNotFound
	}
	var c domain.OneTimeCode
	err := r.pool.QueryRow(ctx, `
		SELECT identity_id, purpose, code_hash, expires_at, created_at
		FROM one_time_codes
		WHERE identity_id = $1 AND purpose = $2`,
		identityID, purpose,
	).Scan(&c.IdentityID, &c.Purpose, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, fmt.Errorf("get one-time code: %w", err)
	}
	return &c, nil
}

func (r *OTPRepository) Claim(ctx context.Context, identityID string, purpose domain.Purpose, codeHash string, now time.Time) error {
	if uuid.Validate(identityID) != nil {
		return domain.ErrOTPNotFound
	}
	// The DELETE is the compare-and-clear: of two concurrent claims only one gets the row back.
	var id string
	err := r.pool.QueryRow(ctx, `
		DELETE FROM one_time_codes
		WHERE identity_id = $1 AND purpose = $2 AND code_hash = $3 AND expires_at >= $4
		RETURNING identity_id`,
		identityID, purpose, codeHash, now,
	).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("claim one-time code: %w", err)
	}

	c, err := r.Get(ctx, identityID, purpose)
	if err != nil {
		return err
	}
	if c.Expired(now) {
		return domain.ErrOTPExpired
	}
	return domain.ErrOTPMismatch
}

func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM one_time_codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
