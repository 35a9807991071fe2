package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/metrics"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
)

const maxNoteLength = 1000

// DonationLedger records donation and receipt events. It performs no
// authorization; callers gate ListAll to admins.
type DonationLedger struct {
	repo repository.DonationRepository
	now  func() time.Time
}

func NewDonationLedger(repo repository.DonationRepository) *DonationLedger {
	return &DonationLedger{repo: repo, now: time.Now}
}

// WithClock replaces the ledger's time source.
func (l *DonationLedger) WithClock(now func() time.Time) *DonationLedger {
	l.now = now
	return l
}

type RecordDonationInput struct {
	IdentityID string
	BloodType  domain.BloodType
	Quantity   int
	Status     domain.DonationStatus
	Note       *string
}

func (l *DonationLedger) Record(ctx context.Context, in RecordDonationInput) (*domain.DonationRecord, error) {
	switch {
	case in.Quantity <= 0:
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	case !in.BloodType.Valid():
		return nil, fmt.Errorf("%w: unknown blood type %q", domain.ErrInvalidInput, in.BloodType)
	case !in.Status.Valid():
		return nil, fmt.Errorf("%w: status must be donated or received", domain.ErrInvalidInput)
	}
	if in.Note != nil {
		trimmed := strings.TrimSpace(*in.Note)
		if len(trimmed) > maxNoteLength {
			return nil, fmt.Errorf("%w: note exceeds %d characters", domain.ErrInvalidInput, maxNoteLength)
		}
		if trimmed == "" {
			in.Note = nil
		} else {
			in.Note = &trimmed
		}
	}

	created, err := l.repo.Create(ctx, &domain.DonationRecord{
		IdentityID: in.IdentityID,
		BloodType:  in.BloodType,
		Quantity:   in.Quantity,
		Status:     in.Status,
		EventDate:  l.now(),
		Note:       in.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("record donation: %w", err)
	}

	metrics.DonationsRecordedTotal.WithLabelValues(string(in.Status)).Inc()
	metrics.DonationQuantityTotal.WithLabelValues(string(in.Status)).Add(float64(in.Quantity))
	return created, nil
}

// ListForIdentity returns the identity's records, most recent first.
func (l *DonationLedger) ListForIdentity(ctx context.Context, identityID string) ([]*domain.DonationRecord, error) {
	records, err := l.repo.List(ctx, repository.ListDonationsInput{IdentityID: identityID})
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return records, nil
}

// ListAll returns every record, most recent first.
func (l *DonationLedger) ListAll(ctx context.Context) ([]*domain.DonationRecord, error) {
	records, err := l.repo.List(ctx, repository.ListDonationsInput{})
	if err != nil {
		return nil, fmt.Errorf("list all donations: %w", err)
	}
	return records, nil
}
