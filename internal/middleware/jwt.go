package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers
    "github.com/sirupsen/logrus"  // structured logging of rejected requests
)

// TokenVerifier resolves a raw bearer token to the username it asserts.
// *service.AuthGateway implements it.
type TokenVerifier interface {
    VerifyToken(raw string) (string, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer token and
// stores the asserted username in the context under "username". Handlers
// read it back with CurrentUsername. Missing or invalid tokens get 401.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            username, err := v.VerifyToken(raw)
            if err != nil {
                logrus.WithFields(logrus.Fields{
                    "path": c.Path(),
                    "ip":   c.RealIP(),
                }).WithError(err).Debug("rejected bearer token")
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            c.Set(usernameKey, username)
            return next(c)
        }
    }
}
