package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// contextKeyIdentity is the Echo context key for the authenticated identity.
const contextKeyIdentity = "auth_identity"

// RequireSession returns middleware that validates the session cookie and
// injects the identity into the request context. Missing cookie, malformed
// token, bad signature, and expiry all produce the same 401 -- callers
// treat every failure as "unauthenticated" with no further detail.
func RequireSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			identity, err := service.ValidateToken(token)
			if err != nil {
				return apperror.NewUnauthorized("authentication required")
			}

			c.Set(contextKeyIdentity, identity)

			return next(c)
		}
	}
}

// GetIdentity retrieves the authenticated identity from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetIdentity(c echo.Context) *Identity {
	identity, ok := c.Get(contextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return identity
}
