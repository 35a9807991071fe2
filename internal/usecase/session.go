package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 24 * time.Hour

// Session is what a successful login or verification hands back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.PublicIdentity
}

// Principal is the identity a verified token speaks for.
type Principal struct {
	IdentityID string
	Role       domain.Role
}

type sessionClaims struct {
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
	jwt.RegisteredClaims
}

type SessionIssuer struct {
	creds  *CredentialStore
	jwtKey []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(creds *CredentialStore, jwtKey []byte, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionIssuer{creds: creds, jwtKey: jwtKey, ttl: ttl, now: time.Now}
}

// WithClock replaces the issuer's time source.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// Login checks verification before the password so an unverified account
// always reports domain.ErrNotVerified.
func (s *SessionIssuer) Login(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !identity.Verified {
		return nil, domain.ErrNotVerified
	}
	if !passwordMatches(identity.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.Issue(identity)
}

// Issue signs a token for a verified identity.
func (s *SessionIssuer) Issue(identity *domain.Identity) (*Session, error) {
	if !identity.Verified {
		return nil, domain.ErrNotVerified
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		Role:  identity.Role,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return nil, fmt.Errorf("sign jwt: %w", err)
	}

	return &Session{Token: signed, ExpiresAt: expiresAt, Identity: identity.Public()}, nil
}

func (s *SessionIssuer) VerifyToken(raw string) (*Principal, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.jwtKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, domain.ErrTokenInvalid
	}
	return &Principal{IdentityID: claims.Subject, Role: claims.Role}, nil
}

func (s *SessionIssuer) RequireRole(raw string, allowed ...domain.Role) (*Principal, error) {
	p, err := s.VerifyToken(raw)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowed, p.Role) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}
