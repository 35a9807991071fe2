package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore owns identity persistence and password hashing.
type CredentialStore struct {
	repo repository.IdentityRepository
	cost int
}

func NewCredentialStore(repo repository.IdentityRepository, bcryptCost int) *CredentialStore {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialStore{repo: repo, cost: bcryptCost}
}

// CreateIdentity stores a pending identity with a hashed password and returns its id.
func (s *CredentialStore) CreateIdentity(ctx context.Context, p domain.Profile) (string, error) {
	hash, err := s.hash(p.Password)
	if err != nil {
		return "", err
	}
	if p.Role == "" {
		p.Role = domain.RoleDonor
	}

	created, err := s.repo.Create(ctx, &domain.Identity{
		Name:         strings.TrimSpace(p.Name),
		Email:        normalizeEmail(p.Email),
		PasswordHash: hash,
		BloodType:    p.BloodType,
		Phone:        strings.TrimSpace(p.Phone),
		Age:          p.Age,
		Address:      strings.TrimSpace(p.Address),
		Role:         p.Role,
	})
	if err != nil {
		return "", fmt.Errorf("create identity: %w", err)
	}
	return created.ID, nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	i, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return i, nil
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return i, nil
}

// MarkVerified is idempotent.
func (s *CredentialStore) MarkVerified(ctx context.Context, id string) error {
	if err := s.repo.MarkVerified(ctx, id); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

func (s *CredentialStore) UpdatePassword(ctx context.Context, id, newPassword string) error {
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeletePending drops an identity that never got past registration.
func (s *CredentialStore) DeletePending(ctx context.Context, id string) error {
	if err := s.repo.DeletePending(ctx, id); err != nil {
		return fmt.Errorf("delete pending identity: %w", err)
	}
	return nil
}

// VerifyPassword reports whether candidate matches the stored hash.
func (s *CredentialStore) VerifyPassword(ctx context.Context, id, candidate string) (bool, error) {
	i, err := s.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return passwordMatches(i.PasswordHash, candidate), nil
}

func (s *CredentialStore) hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is too long", domain.ErrInvalidInput)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func passwordMatches(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
