package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireSelf returns a middleware that only lets the request through when
// the path parameter named param equals the authenticated caller. Anything
// else, including an unauthenticated request, gets 403. It must run after
// JWTAuth.
func RequireSelf(param string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            caller := CurrentUsername(c)
            if caller == "" || c.Param(param) != caller {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
