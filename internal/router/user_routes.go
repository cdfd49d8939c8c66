package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/messagely/internal/handler"    // user handlers
	"github.com/iliyamo/messagely/internal/middleware" // JWT + self-only middlewares
)

// RegisterUsers registers the user directory under /users. Every route
// requires a valid token. The inbox and outbox are visible only to their
// owner; the listing is response-cached.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, v middleware.TokenVerifier, cache echo.MiddlewareFunc) {
	g := e.Group("/users", middleware.JWTAuth(v))

	g.GET("", u.List, cache)
	g.GET("/:username", u.Get)

	self := middleware.RequireSelf("username")
	g.GET("/:username/to", u.MessagesTo, self)
	g.GET("/:username/from", u.MessagesFrom, self)
}
