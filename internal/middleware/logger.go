package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger emits one logrus line per request. The level follows the
// status: 5xx error, 4xx warn, everything else info. Headers and bodies
// are never logged.
func RequestLogger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err) // let Echo write the response so the status is final
            }

            req, res := c.Request(), c.Response()
            entry := logrus.WithFields(logrus.Fields{
                "method":     req.Method,
                "uri":        req.RequestURI,
                "status":     res.Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "client_ip":  c.RealIP(),
                "request_id": res.Header().Get(echo.HeaderXRequestID),
            })
            if u := CurrentUsername(c); u != "" {
                entry = entry.WithField("username", u)
            }

            switch {
            case res.Status >= 500:
                if err != nil {
                    entry = entry.WithError(err)
                }
                entry.Error("server error")
            case res.Status >= 400:
                entry.Warn("client error")
            default:
                entry.Info("request handled")
            }
            return nil
        }
    }
}
