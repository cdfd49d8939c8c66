package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounds the database ping
    "net/http" // status codes
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health returns the liveness endpoint. It answers "ok" while the database
// answers a ping within a second, and 503 otherwise. A nil db skips the
// ping.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                logrus.WithError(err).Warn("health: database ping failed")
                return c.String(http.StatusServiceUnavailable, "unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
