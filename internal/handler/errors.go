package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/logger"
)

type errorPage struct {
    base
    Status  int
    Message string
}

// ErrorHandler is the echo.HTTPErrorHandler.  JSON callers get
// {"error": msg}; browsers get the error page without the nav lookups,
// which may be what failed.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    status, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
    var he *echo.HTTPError
    if errors.As(err, &he) {
        status = he.Code
        if m, ok := he.Message.(string); ok {
            msg = m
        } else {
            msg = http.StatusText(status)
        }
    }
    if status >= http.StatusInternalServerError {
        logger.From(c.Request().Context()).Error("request failed", "path", c.Request().URL.Path, "err", err)
    }

    var werr error
    switch {
    case c.Request().Method == http.MethodHead:
        werr = c.NoContent(status)
    case strings.HasPrefix(c.Request().URL.Path, "/api/") ||
        strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON):
        werr = c.JSON(status, echo.Map{"error": msg})
    default:
        werr = c.Render(status, "error", errorPage{base: base{Title: http.StatusText(status)}, Status: status, Message: msg})
    }
    if werr != nil {
        logger.From(c.Request().Context()).Error("error response failed", "err", werr)
    }
}
