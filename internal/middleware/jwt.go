package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/direct-message-service/internal/auth"
)

// UsernameKey is the echo context key under which BearerAuth stores the
// authenticated username.
const UsernameKey = "username"

// BearerAuth returns an Echo middleware that validates the Authorization
// bearer token and injects the authenticated username into the request
// context. Rejected credentials (missing header, malformed token, bad
// signature, expiry, or a subject that no longer exists) answer 401 without
// revealing which check failed. A credential-store failure is not a
// rejection and answers 500 instead.
func BearerAuth(tokens *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			username, err := tokens.Verify(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrUnknownSubject) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth check failed"})
			}
			c.Set(UsernameKey, username)
			return next(c)
		}
	}
}

// CurrentUsername returns the authenticated username stored by BearerAuth,
// or "" when the request is unauthenticated.
func CurrentUsername(c echo.Context) string {
	if v, ok := c.Get(UsernameKey).(string); ok {
		return v
	}
	return ""
}
