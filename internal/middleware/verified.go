package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ivankosh/photoflow/internal/repository"
)

// RequireVerifiedEmail returns a middleware that only admits principals
// whose email address has been confirmed. Provider-issued tokens carry
// the verified flag in their claims; locally issued access tokens do
// not, so the check falls back to the user record. It assumes
// BearerAuth ran earlier in the chain.
func RequireVerifiedEmail(users repository.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "email verification required"})
			}
			if !p.EmailVerified {
				u, err := users.GetBySubject(c.Request().Context(), p.Subject)
				if err != nil || !u.EmailVerified {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "email verification required"})
				}
			}
			return next(c)
		}
	}
}
