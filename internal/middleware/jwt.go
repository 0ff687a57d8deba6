package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/utils"
)

// SessionOptions configures the browser session cookie.
type SessionOptions struct {
    Secret     string
    CookieName string
    TTL        time.Duration
    Secure     bool
}

// Session returns an Echo middleware that gives every browser a stable
// session id.  The id travels in an HS256-signed cookie; a missing, expired
// or tampered cookie is replaced with a fresh id.  Handlers read the id
// via SessionID(c), and the request logger is tagged with it.
func Session(opts SessionOptions) echo.MiddlewareFunc {
    if opts.CookieName == "" {
        opts.CookieName = "sf_session"
    }
    if opts.TTL <= 0 {
        opts.TTL = 30 * 24 * time.Hour
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            var id string
            if ck, err := c.Cookie(opts.CookieName); err == nil && ck.Value != "" {
                if parsed, err := utils.ParseSession(opts.Secret, ck.Value); err == nil {
                    id = parsed
                }
            }
            if id == "" {
                tok, err := utils.NewSessionToken(opts.Secret, opts.TTL)
                if err != nil {
                    return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
                }
                id = tok.ID
                c.SetCookie(&http.Cookie{
                    Name:     opts.CookieName,
                    Value:    tok.Token,
                    Path:     "/",
                    Expires:  tok.Exp,
                    HttpOnly: true,
                    Secure:   opts.Secure,
                    SameSite: http.SameSiteLaxMode,
                })
            }

            c.Set(sessionKey, id)
            req := c.Request()
            ctx := logger.Into(req.Context(), logger.From(req.Context()).With("session", id))
            c.SetRequest(req.WithContext(ctx))
            return next(c)
        }
    }
}
