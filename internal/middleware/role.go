package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
)

// LoginChecker reports whether a session is signed in.
type LoginChecker func(ctx context.Context, session string) (bool, error)

// RequireLogin returns a middleware that sends signed-out visitors to
// /login.  Paths listed in open (matched by prefix) are always served.
// When enabled is false the middleware is a no-op.
func RequireLogin(enabled bool, check LoginChecker, open ...string) echo.MiddlewareFunc {
    if !enabled || check == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            path := c.Request().URL.Path
            for _, p := range open {
                if strings.HasPrefix(path, p) {
                    return next(c)
                }
            }
            ok, err := check(c.Request().Context(), SessionID(c))
            if err != nil {
                logger.From(c.Request().Context()).Warn("login check failed", "err", err)
            }
            if !ok {
                if wantsJSON(c) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "login required"})
                }
                return c.Redirect(http.StatusSeeOther, "/login")
            }
            return next(c)
        }
    }
}

func wantsJSON(c echo.Context) bool {
    return strings.HasPrefix(c.Request().URL.Path, "/api/") ||
        strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
