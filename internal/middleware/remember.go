package middleware

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
)

// PathRecorder stores the last page a session visited.
type PathRecorder func(ctx context.Context, session, path string) error

// RememberPath records the path of every successful GET page view so that
// login can send the visitor back to it.  Paths with a prefix in skip are
// not recorded.
func RememberPath(record PathRecorder, skip ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            req := c.Request()
            if err != nil || req.Method != http.MethodGet || c.Response().Status >= 400 {
                return err
            }
            path := req.URL.Path
            for _, p := range skip {
                if strings.HasPrefix(path, p) {
                    return nil
                }
            }
            if rerr := record(req.Context(), SessionID(c), path); rerr != nil {
                logger.From(req.Context()).Warn("could not record redirect path", "path", path, "err", rerr)
            }
            return nil
        }
    }
}
