package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
)

type IdentityRepository interface {
	// Create fails with domain.ErrDuplicateEmail when the lower-cased email exists.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	MarkVerified(ctx context.Context, id string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// DeletePending removes an identity that has not been verified yet.
	// Verified identities are left alone.
	DeletePending(ctx context.Context, id string) error
}

// IdentityReader is the read side used by reports. It never mutates.
type IdentityReader interface {
	// CountVerified counts verified identities; a nil bound is open.
	CountVerified(ctx context.Context, from, to *time.Time) (int, error)
	// ListVerified returns verified identities newest first. Empty role means all roles.
	ListVerified(ctx context.Context, role domain.Role) ([]*domain.Identity, error)
}
