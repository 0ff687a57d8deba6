package middleware

// identity.go holds the accessors shared across middleware and handlers for
// per-request identity stored on the Echo context.

import "github.com/labstack/echo/v4"

const sessionKey = "session_id"

// SessionID returns the browser session id set by Session, or "" when the
// middleware did not run.
func SessionID(c echo.Context) string {
    if s, ok := c.Get(sessionKey).(string); ok {
        return s
    }
    return ""
}

// sessionOrAnon is SessionID with a placeholder for keys.
func sessionOrAnon(c echo.Context) string {
    if s := SessionID(c); s != "" {
        return s
    }
    return "anon"
}
