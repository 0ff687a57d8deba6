// This file defines the JSON browse endpoints.  They proxy the catalog
// API's top movies and its genre and title-initial lists, which change
// rarely; the router puts them behind the response cache.

package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/listing"
)

// Genres lists every genre as {id, name}.
func (h *Storefront) Genres(c echo.Context) error {
    out, err := h.apiFor(c).Genres(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, out)
}

// TitleInitials lists the characters titles can be browsed by.
func (h *Storefront) TitleInitials(c echo.Context) error {
    out, err := h.apiFor(c).TitleInitials(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, out)
}

// TopMovies proxies the top-N browse page.  limit and offset are coerced
// the way the listing coerces them.
func (h *Storefront) TopMovies(c echo.Context) error {
    q := listing.Parse(c.QueryParams())
    out, err := h.apiFor(c).MoviesPage(c.Request().Context(), q.Limit, q.Offset)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, out)
}
