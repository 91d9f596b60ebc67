package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ivankosh/photoflow/internal/auth"
)

// principalKey is the context key under which the authenticated
// Principal is stored for downstream handlers.
const principalKey = "principal"

// BearerAuth returns an Echo middleware that resolves the Authorization
// header through the unified authenticator and injects the resulting
// Principal into the request context. Failure mapping is deliberate and
// clients rely on it: a missing or expired token answers 401 (refresh
// may help), an invalid one answers 403 (re-login required).
func BearerAuth(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			var bearer string
			if strings.HasPrefix(header, "Bearer ") {
				bearer = strings.TrimPrefix(header, "Bearer ")
			}

			p, err := a.Authenticate(c.Request().Context(), bearer)
			if err != nil {
				switch auth.CodeOf(err) {
				case auth.CodeMissing:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
				case auth.CodeExpired:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				default:
					return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
				}
			}

			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// PrincipalFrom retrieves the authenticated Principal stored by
// BearerAuth. The boolean is false on routes the middleware never ran on.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(principalKey).(auth.Principal)
	return p, ok
}
