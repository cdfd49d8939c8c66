package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/messagely/internal/handler"
	"github.com/iliyamo/messagely/internal/middleware"
)

// RegisterMessages registers /messages. Access checks beyond a valid token
// (sender or recipient for reads, recipient for mark-read) live in the
// ledger.
func RegisterMessages(e *echo.Echo, m *handler.MessageHandler, v middleware.TokenVerifier) {
	g := e.Group("/messages", middleware.JWTAuth(v))

	g.POST("", m.Create)
	g.GET("/:id", m.Get)
	g.POST("/:id/read", m.MarkRead)
}
