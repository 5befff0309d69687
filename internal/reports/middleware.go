package reports

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/visionpoint/assessment-api/internal/apperror"
)

// RequireWebhookSecret returns middleware that authenticates webhook calls
// with a fixed bearer secret. Missing header, wrong scheme, and wrong
// secret all produce the same 401; the comparison is constant-time so the
// secret cannot be probed byte by byte.
func RequireWebhookSecret(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return apperror.NewUnauthorized("invalid webhook credentials")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				return apperror.NewUnauthorized("invalid webhook credentials")
			}

			return next(c)
		}
	}
}
