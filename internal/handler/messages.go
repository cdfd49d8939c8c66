package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/messagely/internal/middleware"
	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/service"
)

// MessageLedger is implemented by *service.Ledger.
type MessageLedger interface {
	Create(ctx context.Context, caller string, in service.SendInput) (model.Message, error)
	Get(ctx context.Context, caller string, id uint64) (model.MessageDetail, error)
	MarkRead(ctx context.Context, caller string, id uint64) (model.ReadReceipt, error)
}

// MessageHandler serves /messages. Every route runs behind JWTAuth and the
// ledger decides who may see or change a message.
type MessageHandler struct {
	Ledger MessageLedger
}

func NewMessageHandler(l MessageLedger) *MessageHandler {
	if l == nil {
		panic("nil ledger passed to NewMessageHandler")
	}
	return &MessageHandler{Ledger: l}
}

type sendReq struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// messageID parses :id. Anything that is not a positive integer cannot name
// a stored message, so it is reported as not found.
func messageID(c echo.Context) (uint64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("message %s %w", raw, service.ErrNotFound)
	}
	return id, nil
}

// Get: GET /messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Ledger.Get(ctx, middleware.CurrentUsername(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": m})
}

// Create: POST /messages. The sender is the caller; a from_username in the
// body is ignored.
func (h *MessageHandler) Create(c echo.Context) error {
	var req sendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Ledger.Create(ctx, middleware.CurrentUsername(c), service.SendInput{ToUsername: req.ToUsername, Body: req.Body})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": m})
}

// MarkRead: POST /messages/:id/read
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, err := messageID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	r, err := h.Ledger.MarkRead(ctx, middleware.CurrentUsername(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": r})
}
