package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ivankosh/photoflow/internal/auth"
	"github.com/ivankosh/photoflow/internal/config"
	"github.com/ivankosh/photoflow/internal/handler"
	"github.com/ivankosh/photoflow/internal/middleware"
	"github.com/ivankosh/photoflow/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and their
// middleware. Unauthenticated operations live under /v1/auth, protected
// endpoints under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn *auth.Authenticator,
	rlCfg config.RateLimitConfig, rdb *redis.Client) {
	// Operations that do not require an existing session: register,
	// login, refresh and the email verification link. Refresh is
	// deliberately unauthenticated — an expired access token is the very
	// reason a client calls it.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.GET("/verify-email", a.VerifyEmail)

	// Protected endpoints. The bearer middleware resolves the principal
	// for everything below.
	bearer := middleware.BearerAuth(authn)

	protected := e.Group("/v1")
	protected.Use(bearer)
	protected.GET("/me", a.Me)
	protected.POST("/logout", a.Logout)

	// Resend gets its own chain so the token bucket only meters this
	// route, keyed by the authenticated subject.
	e.POST("/v1/auth/resend-verification", a.ResendVerification,
		bearer, middleware.NewTokenBucket(rlCfg, rdb))
}

// RegisterShares registers share grant creation (protected, verified
// accounts only) and the anonymous resolution endpoint keyed by the
// opaque token in the URL path.
func RegisterShares(e *echo.Echo, s *handler.ShareHandler, authn *auth.Authenticator,
	users repository.UserStore) {
	e.POST("/v1/shares", s.Create,
		middleware.BearerAuth(authn), middleware.RequireVerifiedEmail(users))
	e.GET("/v1/shared/:token", s.Resolve)
}
