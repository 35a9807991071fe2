package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/bloodbank/internal/domain"
	"github.com/ErlanBelekov/bloodbank/internal/reqctx"
	"github.com/ErlanBelekov/bloodbank/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	errUnauthorized = "Unauthorized"
	errTokenExpired = "Token expired"
	errForbidden    = "Access denied"
)

type tokenVerifier interface {
	VerifyToken(raw string) (*usecase.Principal, error)
	RequireRole(raw string, allowed ...domain.Role) (*usecase.Principal, error)
}

// Auth validates a Bearer token and sets "identityID" and "role" in the gin
// context. The identity is also attached to the request context for logging.
// When roles are given the token's role must be one of them, otherwise 403.
func Auth(verifier tokenVerifier, allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		var (
			p   *usecase.Principal
			err error
		)
		if len(allowed) == 0 {
			p, err = verifier.VerifyToken(raw)
		} else {
			p, err = verifier.RequireRole(raw, allowed...)
		}
		switch {
		case errors.Is(err, domain.ErrForbidden):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		case errors.Is(err, domain.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errTokenExpired})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set("identityID", p.IdentityID)
		c.Set("role", string(p.Role))
		c.Request = c.Request.WithContext(reqctx.WithIdentityID(c.Request.Context(), p.IdentityID))
		c.Next()
	}
}
