package middleware

// identity.go holds the helpers that read the authenticated caller back out
// of the Echo context. JWTAuth is the only writer.

import (
    "github.com/labstack/echo/v4"
)

const usernameKey = "username"

// CurrentUsername returns the authenticated caller, or "" when the request
// did not pass through JWTAuth.
func CurrentUsername(c echo.Context) string {
    if s, ok := c.Get(usernameKey).(string); ok {
        return s
    }
    return ""
}

// rateIdentity is the caller used in rate limit keys; "anon" before login.
func rateIdentity(c echo.Context) string {
    if s := CurrentUsername(c); s != "" {
        return s
    }
    return "anon"
}
