package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer     = "Internal server error"
	errInvalidInput       = "Invalid input"
	errUserNotFound       = "User not found"
	errDuplicateEmail     = "User already exists"
	errInvalidCredentials = "Invalid credentials"
	errNotVerified        = "Please verify your email first"
	errAlreadyVerified    = "User already verified"
	errWrongPassword      = "Current password is incorrect"
	errOTPNotFound        = "No OTP found. Please request a new one"
	errOTPExpired         = "OTP expired"
	errOTPMismatch        = "Invalid OTP"
	errTooManyRequests    = "Too many requests, try again later"
	errTokenInvalid       = "Token is invalid or expired"
	errForbidden          = "Access denied"
)

// respondError maps a usecase error to its HTTP status and fixed message.
// Validation errors carry their own detail; internal errors only do when gin
// runs in debug mode (ENV=local).
func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	status, msg := classify(err)
	if status == http.StatusBadRequest && errors.Is(err, domain.ErrInvalidInput) {
		msg = err.Error()
	}
	if status == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), op, "error", err)
		if gin.IsDebugging() {
			msg = err.Error()
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errInvalidInput
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, errOTPExpired
	case errors.Is(err, domain.ErrOTPMismatch):
		return http.StatusBadRequest, errOTPMismatch
	case errors.Is(err, domain.ErrOTPNotFound):
		return http.StatusBadRequest, errOTPNotFound
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, errAlreadyVerified
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusBadRequest, errWrongPassword
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errInvalidCredentials
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errTokenInvalid
	case errors.Is(err, domain.ErrNotVerified):
		return http.StatusForbidden, errNotVerified
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errForbidden
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, errUserNotFound
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, errDuplicateEmail
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, errTooManyRequests
	default:
		return http.StatusInternalServerError, errInternalServer
	}
}
