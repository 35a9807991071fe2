package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Create(ctx context.Context, d *domain.DonationRecord) (*domain.DonationRecord, error) {
	query := `
		INSERT INTO donations (identity_id, blood_type, quantity, status, event_date, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, identity_id, blood_type, quantity, status, event_date, note`

	var out domain.DonationRecord
	err := r.pool.QueryRow(ctx, query,
		d.IdentityID, d.BloodType, d.Quantity, d.Status, d.EventDate, d.Note,
	).Scan(&out.ID, &out.IdentityID, &out.BloodType, &out.Quantity, &out.Status, &out.EventDate, &out.Note)
	if err != nil {
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	return &out, nil
}

func (r *DonationRepository) List(ctx context.Context, input repository.ListDonationsInput) ([]*domain.DonationRecord, error) {
	var (
		args  []any
		where []string
	)
	if input.IdentityID != "" {
		args = append(args, input.IdentityID)
		where = append(where, fmt.Sprintf("d.identity_id = $%d", len(args)))
	}
	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if input.From != nil {
		args = append(args, *input.From)
		where = append(where, fmt.Sprintf("d.event_date >= $%d", len(args)))
	}
	if input.To != nil {
		args = append(args, *input.To)
		where = append(where, fmt.Sprintf("d.event_date <= $%d", len(args)))
	}

	query := `
		SELECT d.id, d.identity_id, d.blood_type, d.quantity, d.status, d.event_date, d.note,
		       i.name, i.email, i.blood_type, i.phone, i.role
		FROM donations d
		JOIN identities i ON i.id = d.identity_id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY d.event_date DESC, d.id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*domain.DonationRecord
	for rows.Next() {
		d, err := scanDonationWithDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DonationRepository) TotalsByIdentity(ctx context.Context, ids []string) (map[string]domain.DonationTotals, error) {
	totals := make(map[string]domain.DonationTotals, len(ids))
	if len(ids) == 0 {
		return totals, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT identity_id::text, status, COUNT(*), COALESCE(SUM(quantity), 0)
		FROM donations
		WHERE identity_id::text = ANY($1)
		GROUP BY identity_id, status`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("donation totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       string
			status   domain.DonationStatus
			count    int
			quantity int
		)
		if err := rows.Scan(&id, &status, &count, &quantity); err != nil {
			return nil, fmt.Errorf("scan donation totals: %w", err)
		}
		t := totals[id]
		switch status {
		case domain.StatusDonated:
			t.DonatedCount, t.DonatedQuantity = count, quantity
		case domain.StatusReceived:
			t.ReceivedCount, t.ReceivedQuantity = count, quantity
		}
		totals[id] = t
	}
	return totals, rows.Err()
}

func scanDonationWithDonor(row pgx.Row) (*domain.DonationRecord, error) {
	var (
		d     domain.DonationRecord
		donor domain.DonorSummary
	)
	err := row.Scan(
		&d.ID, &d.IdentityID, &d.BloodType, &d.Quantity, &d.Status, &d.EventDate, &d.Note,
		&donor.Name, &donor.Email, &donor.BloodType, &donor.Phone, &donor.Role,
	)
	if err != nil {
		return nil, fmt.Errorf("scan donation: %w", err)
	}
	d.Donor = &donor
	return &d, nil
}
