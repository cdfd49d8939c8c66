package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/messagely/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/messagely/internal/middleware" // JWT authentication and self-only access
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers login and registration under /auth, behind the
// rate limiter, and the protected /me endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.TokenVerifier, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/me", a.Me, middleware.JWTAuth(v))
}
