package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/messagely/internal/middleware"
	"github.com/iliyamo/messagely/internal/service"
)

// respondError is the single place service errors become HTTP responses.
// Unexpected errors are logged and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error()})
	case errors.Is(err, service.ErrDuplicateUsername):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrDuplicateUsername.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrAlreadyRead):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrAlreadyRead.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrStoreUnavailable):
		// an outage and bad input look the same to the client
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": service.ErrInvalidCredentials.Error()})
	}

	logrus.WithFields(logrus.Fields{
		"method":   c.Request().Method,
		"path":     c.Path(),
		"username": middleware.CurrentUsername(c),
	}).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
