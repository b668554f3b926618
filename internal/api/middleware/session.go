package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/comanda/account-service/internal/core/domain"
)

// IdentityKey is the echo context key holding the caller's domain.Identity.
const IdentityKey = "identity"

// SessionResolver turns a session token into the caller it is bound to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.Identity, error)
}

// Session resolves the session token (cookie, or bearer header for API
// clients) and injects the caller identity into the context.
func Session(resolver SessionResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cookieName)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}

			identity, err := resolver.ResolveSession(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
				}
				return err
			}

			c.Set(IdentityKey, *identity)
			return next(c)
		}
	}
}

// TokenFromRequest returns the session token carried by the request, or "".
func TokenFromRequest(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// IdentityFrom returns the identity injected by Session.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(domain.Identity)
	return identity, ok && identity.UserID != ""
}
