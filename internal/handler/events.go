package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/cart"
    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/middleware"
    "github.com/iliyamo/movie-storefront/internal/model"
    "github.com/iliyamo/movie-storefront/internal/session"
)

const defaultHeartbeat = 25 * time.Second

type sseEvent struct {
    name string
    data any
}

type cartEvent struct {
    Count int     `json:"count"`
    Total float64 `json:"total"`
}

type authEvent struct {
    LoggedIn bool   `json:"loggedIn"`
    Username string `json:"username"`
}

// Events streams the session's cart and auth changes as server-sent
// events.  A "cart" event carries the new count and total; an "auth" event
// tells the page to reload.  Slow readers lose intermediate events, never
// the stream.
func (h *Storefront) Events(c echo.Context) error {
    ctx := c.Request().Context()
    sid := middleware.SessionID(c)
    log := logger.From(ctx)

    events := make(chan sseEvent, 8)
    send := func(e sseEvent) {
        select {
        case events <- e:
        default:
            log.Debug("sse event dropped", "event", e.name)
        }
    }

    res := c.Response()
    res.Header().Set(echo.HeaderContentType, "text/event-stream")
    res.Header().Set(echo.HeaderCacheControl, "no-cache")
    res.Header().Set("Connection", "keep-alive")
    res.Header().Set("X-Accel-Buffering", "no")
    res.WriteHeader(http.StatusOK)
    res.Flush()

    view := cart.NewView(sid, h.apiFor(c))
    view.OnChange(func(ct model.Cart, err error) {
        if err == nil {
            send(sseEvent{"cart", cartEvent{Count: ct.Count(), Total: ct.TotalPrice}})
        }
    })
    view.AttachAsync(ctx, h.Bus)
    defer view.Detach()

    // the page already shows the current identity; only changes are sent
    watcher := session.NewWatcher(h.Sessions, sid)
    watcher.Attach(ctx, h.Bus)
    watcher.OnChange(func(id session.Identity) {
        send(sseEvent{"auth", authEvent{LoggedIn: id.LoggedIn, Username: id.Username()}})
    })
    defer watcher.Detach()

    every := h.Heartbeat
    if every <= 0 {
        every = defaultHeartbeat
    }
    ticker := time.NewTicker(every)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return nil
        case <-ticker.C:
            if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
                return nil
            }
            res.Flush()
        case e := <-events:
            if err := writeEvent(res, e); err != nil {
                log.Debug("sse write failed", "err", err)
                return nil
            }
            res.Flush()
        }
    }
}

func writeEvent(w http.ResponseWriter, e sseEvent) error {
    data, err := json.Marshal(e.data)
    if err != nil {
        return err
    }
    _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, data)
    return err
}
