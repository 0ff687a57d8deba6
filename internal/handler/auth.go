package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/middleware"
    "github.com/iliyamo/movie-storefront/internal/session"
)

type loginPage struct {
    base
    Username string
}

// LoginForm renders the login page.  A signed-in visitor goes straight to
// the listing.
func (h *Storefront) LoginForm(c echo.Context) error {
    id, err := h.Sessions.Load(c.Request().Context(), middleware.SessionID(c))
    if err == nil && id.LoggedIn {
        return c.Redirect(http.StatusFound, session.DefaultRedirect)
    }
    return c.Render(http.StatusOK, "login", loginPage{base: h.page(c, "Login")})
}

// Login verifies the credentials with the catalog API and, on success,
// returns the visitor to the page they were sent away from.
func (h *Storefront) Login(c echo.Context) error {
    ctx := c.Request().Context()
    sid := middleware.SessionID(c)
    username := c.FormValue("username")

    _, err := h.Sessions.Login(ctx, sid, h.apiFor(c), username, c.FormValue("password"))
    if err != nil {
        status := http.StatusBadGateway
        msg := "Login failed: " + err.Error()
        switch {
        case errors.Is(err, session.ErrMissingCredentials):
            status, msg = http.StatusBadRequest, err.Error()
        case errors.Is(err, session.ErrInvalidCredentials):
            status = http.StatusUnauthorized
            msg = strings.TrimPrefix(err.Error(), session.ErrInvalidCredentials.Error()+": ")
        }
        p := loginPage{base: h.page(c, "Login"), Username: username}
        p.Error = msg
        return c.Render(status, "login", p)
    }

    to, err := h.Sessions.TakeRedirect(ctx, sid)
    if err != nil {
        logger.From(ctx).Warn("login: redirect path unavailable", "err", err)
    }
    return c.Redirect(http.StatusSeeOther, localPath(to, session.DefaultRedirect))
}

// Logout clears the identity and forgets the session's upstream cookies.
func (h *Storefront) Logout(c echo.Context) error {
    sid := middleware.SessionID(c)
    if err := h.Sessions.Logout(c.Request().Context(), sid); err != nil {
        return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
    }
    h.Jars.Drop(sid)
    return c.Redirect(http.StatusSeeOther, "/login")
}

// IsLoggedIn reports the session's login flag.  It backs
// middleware.RequireLogin.
func (h *Storefront) IsLoggedIn(ctx context.Context, sid string) (bool, error) {
    id, err := h.Sessions.Load(ctx, sid)
    return id.LoggedIn, err
}
