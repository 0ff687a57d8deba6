package middleware

import (
    "log/slog"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
)

// RequestLogger ensures every request has an X-Request-Id, stores a
// request-scoped logger in the request context and writes one line per
// request once the handler returns.
func RequestLogger(l *slog.Logger) echo.MiddlewareFunc {
    if l == nil {
        l = slog.Default()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            rid := req.Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
                req.Header.Set(echo.HeaderXRequestID, rid)
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            reqLogger := l.With(slog.String("request_id", rid))
            c.SetRequest(req.WithContext(logger.Into(req.Context(), reqLogger)))

            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }

            level := slog.LevelInfo
            status := c.Response().Status
            if status >= 500 {
                level = slog.LevelError
            }
            // Session may have tagged the context logger after we stored it.
            logger.From(c.Request().Context()).LogAttrs(c.Request().Context(), level, "http",
                slog.String("method", req.Method),
                slog.String("path", req.URL.Path),
                slog.String("route", c.Path()),
                slog.Int("status", status),
                slog.Duration("dur", time.Since(start)),
                slog.Int64("bytes", c.Response().Size),
            )
            return nil
        }
    }
}
