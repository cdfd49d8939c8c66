package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/messagely/internal/model"
)

// UserDirectory is implemented by *service.Directory.
type UserDirectory interface {
	ListAll(ctx context.Context) ([]model.UserSummary, error)
	Get(ctx context.Context, username string) (model.UserDetail, error)
	MessagesFrom(ctx context.Context, username string) ([]model.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]model.ReceivedMessage, error)
}

// UserHandler serves the user directory.
type UserHandler struct {
	Dir UserDirectory
}

func NewUserHandler(dir UserDirectory) *UserHandler {
	if dir == nil {
		panic("nil directory passed to NewUserHandler")
	}
	return &UserHandler{Dir: dir}
}

// List: GET /users
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, err := h.Dir.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Get: GET /users/:username
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Dir.Get(ctx, c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// MessagesTo: GET /users/:username/to
func (h *UserHandler) MessagesTo(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	msgs, err := h.Dir.MessagesTo(ctx, c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// MessagesFrom: GET /users/:username/from
func (h *UserHandler) MessagesFrom(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	msgs, err := h.Dir.MessagesFrom(ctx, c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}
