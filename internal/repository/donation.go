package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
)

type ListDonationsInput struct {
	IdentityID string                // empty = all identities
	Status     domain.DonationStatus // empty = all statuses
	From       *time.Time            // inclusive
	To         *time.Time            // inclusive
}

type DonationRepository interface {
	DonationReader
	Create(ctx context.Context, record *domain.DonationRecord) (*domain.DonationRecord, error)
}

type DonationReader interface {
	// List returns records ordered by event date descending, with Donor populated.
	List(ctx context.Context, input ListDonationsInput) ([]*domain.DonationRecord, error)
	// TotalsByIdentity sums donated/received activity for each of ids.
	TotalsByIdentity(ctx context.Context, ids []string) (map[string]domain.DonationTotals, error)
}
