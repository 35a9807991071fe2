package domain

import (
	"errors"
	"time"
)

var (
	ErrOTPNotFound     = errors.New("no active code")
	ErrOTPExpired      = errors.New("code has expired")
	ErrOTPMismatch     = errors.New("code does not match")
	ErrTooManyRequests = errors.New("too many requests")
)

// Purpose scopes a one-time code. Each identity holds at most one live code per purpose.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// OneTimeCode is the stored slot. CodeHash is the hex SHA-256 of the code.
type OneTimeCode struct {
	IdentityID string
	Purpose    Purpose
	CodeHash   string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
