// Package handler exposes the storefront's HTTP handlers: server-rendered
// pages, their form actions, the server-sent event stream and a few JSON
// endpoints.  Every handler works on behalf of one browser session (see
// middleware.Session) and talks to the catalog API through that session's
// own cookie jar.
package handler

import (
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/broadcast"
    "github.com/iliyamo/movie-storefront/internal/cart"
    "github.com/iliyamo/movie-storefront/internal/checkout"
    "github.com/iliyamo/movie-storefront/internal/gateway"
    "github.com/iliyamo/movie-storefront/internal/listing"
    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/middleware"
    "github.com/iliyamo/movie-storefront/internal/session"
)

// Storefront aggregates the collaborators the page handlers need.
type Storefront struct {
    API       *gateway.Client      // catalog API; bound to a session jar per request
    Jars      *gateway.Jars        // upstream cookie jars keyed by browser session
    Bus       *broadcast.Bus       // cart and auth signals
    Carts     *cart.Coordinator    // cart mutations
    Sessions  *session.Store       // identity and redirect path
    Snapshots *listing.Snapshots   // listing state snapshots
    Checkout  *checkout.Service    // payments
    Posters   *gateway.Posters     // optional poster lookups; may be nil
    Heartbeat time.Duration        // SSE keep-alive interval
}

// Nav is the navigation bar state rendered on every page.
type Nav struct {
    LoggedIn  bool
    Username  string
    CartCount int
    CartTotal float64
}

// base carries the fields the layout renders.
type base struct {
    Title  string
    Nav    Nav
    Error  string
    Notice string
}

// apiFor returns the catalog client bound to the request's session jar.
func (h *Storefront) apiFor(c echo.Context) *gateway.Client {
    return h.API.WithJar(h.Jars.Get(middleware.SessionID(c)))
}

// page builds the layout fields.  Identity and cart failures degrade to a
// signed-out, empty-cart bar rather than failing the page.
func (h *Storefront) page(c echo.Context, title string) base {
    ctx := c.Request().Context()
    sid := middleware.SessionID(c)
    b := base{Title: title}

    if id, err := h.Sessions.Load(ctx, sid); err != nil {
        logger.From(ctx).Warn("nav: identity unavailable", "err", err)
    } else {
        b.Nav.LoggedIn = id.LoggedIn
        b.Nav.Username = id.Username()
    }

    v := cart.NewView(sid, h.apiFor(c))
    v.Reload(ctx)
    b.Nav.CartCount = v.Count()
    b.Nav.CartTotal = v.Total()
    return b
}

// Root sends / to the listing.
func (h *Storefront) Root(c echo.Context) error {
    return c.Redirect(http.StatusFound, "/movies")
}

// Stub renders a placeholder page.
func (h *Storefront) Stub(title string) echo.HandlerFunc {
    return func(c echo.Context) error {
        return c.Render(http.StatusOK, "stub", h.page(c, title))
    }
}

// localPath returns p if it is a same-site absolute path, else def.
func localPath(p, def string) string {
    if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
        return def
    }
    if u, err := url.Parse(p); err != nil || u.Host != "" || u.Scheme != "" {
        return def
    }
    return p
}
