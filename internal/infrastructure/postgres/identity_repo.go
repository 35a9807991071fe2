package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const identityColumns = `id, name, email, password_hash, blood_type, phone, age, address, role, verified, created_at`

type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, i *domain.Identity) (*domain.Identity, error) {
	query := `
		INSERT INTO identities (name, email, password_hash, blood_type, phone, age, address, role, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + identityColumns

	row := r.pool.QueryRow(ctx, query,
		i.Name, strings.ToLower(i.Email), i.PasswordHash, i.BloodType,
		i.Phone, i.Age, i.Address, i.Role, i.Verified,
	)

	created, err := scanIdentity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}
	return created, nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE LOWER(email) = LOWER($1)`
	return scanIdentity(r.pool.QueryRow(ctx, query, email))
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrIdentityNotFound
	}
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return scanIdentity(r.pool.QueryRow(ctx, query, id))
}

func (r *IdentityRepository) MarkVerified(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identities SET verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identities SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepository) DeletePending(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM identities WHERE id = $1 AND verified = FALSE`, id); err != nil {
		return fmt.Errorf("delete pending identity: %w", err)
	}
	return nil
}

func (r *IdentityRepository) CountVerified(ctx context.Context, from, to *time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM identities
		WHERE verified
		  AND ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)`,
		from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count verified identities: %w", err)
	}
	return n, nil
}

func (r *IdentityRepository) ListVerified(ctx context.Context, role domain.Role) ([]*domain.Identity, error) {
	query := `
		SELECT ` + identityColumns + `
		FROM identities
		WHERE verified AND ($1 = '' OR role = $1)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("list verified identities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// DeleteAll wipes identities and, through cascades, their codes and donations.
// Only the seed command calls this.
func (r *IdentityRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM identities`); err != nil {
		return fmt.Errorf("delete identities: %w", err)
	}
	return nil
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var i domain.Identity
	err := row.Scan(
		&i.ID, &i.Name, &i.Email, &i.PasswordHash, &i.BloodType,
		&i.Phone, &i.Age, &i.Address, &i.Role, &i.Verified, &i.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	return &i, nil
}
