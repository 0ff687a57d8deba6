package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/gateway"
    "github.com/iliyamo/movie-storefront/internal/listing"
    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/middleware"
    "github.com/iliyamo/movie-storefront/internal/viewmodel"
)

// cardView is a card plus the page-level extras the template needs.
type cardView struct {
    viewmodel.Card
    Link   string
    Poster string
}

type listQuery struct {
    Filter     listing.Filter
    Limit      int
    Sort0Field string
    Sort0Dir   string
    Sort1Field string
    Sort1Dir   string
}

type moviesPage struct {
    base
    Query        listQuery
    FilterParams map[string]string
    SortFields   []string
    SortDirs     []string
    Limits       []int
    Cards        []cardView
    Page         int
    HasPrev      bool
    HasNext      bool
    PrevURL      string
    NextURL      string
}

type detailPage struct {
    base
    Card cardView
    Path string
    Busy bool
}

// Movies renders the listing.  A request without listing parameters may
// restore the session's last listing; any request whose parameters are not
// canonical is redirected to the canonical URL first.
func (h *Storefront) Movies(c echo.Context) error {
    ctx := c.Request().Context()
    ctl := listing.NewController(middleware.SessionID(c), h.apiFor(c), h.Snapshots)

    q, redirect, err := ctl.Activate(ctx, c.QueryParams())
    if err != nil {
        // snapshot storage is best-effort; the listing still works
        logger.From(ctx).Warn("listing snapshot", "err", err)
    }
    if redirect {
        return c.Redirect(http.StatusFound, q.URL())
    }

    view := ctl.Refresh(ctx)
    p := moviesPage{
        base:         h.page(c, "Movies"),
        Query:        toListQuery(view.Query),
        FilterParams: filterParams(view.Query),
        SortFields:   []string{string(listing.SortRating), string(listing.SortTitle)},
        SortDirs:     []string{string(listing.Desc), string(listing.Asc)},
        Limits:       listing.AllowedLimits,
        Cards:        make([]cardView, 0, len(view.Cards)),
        Page:         view.Page,
        HasPrev:      view.HasPrev,
        HasNext:      view.HasNext,
        PrevURL:      view.Query.Prev().URL(),
        NextURL:      view.Query.Next().URL(),
    }
    if view.Err != nil {
        p.Error = view.Err.Error()
    }
    for _, card := range view.Cards {
        p.Cards = append(p.Cards, cardView{Card: card, Link: "/movies/" + card.ID})
    }
    return c.Render(http.StatusOK, "movies", p)
}

// Search handles the search bar.  Only non-empty fields become filters; an
// all-empty submit resets the listing to its defaults.
func (h *Storefront) Search(c echo.Context) error {
    f := listing.Filter{
        Title:    strings.TrimSpace(c.QueryParam("title")),
        Year:     strings.TrimSpace(c.QueryParam("year")),
        Director: strings.TrimSpace(c.QueryParam("director")),
        Star:     strings.TrimSpace(c.QueryParam("star")),
    }
    if f.IsZero() {
        return c.Redirect(http.StatusFound, listing.Default().URL())
    }
    q := listing.Default()
    if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
        q = q.WithLimit(n)
    }
    q = q.WithFilter(f)
    return c.Redirect(http.StatusFound, q.URL())
}

// Movie renders one movie with an add-to-cart form.
func (h *Storefront) Movie(c echo.Context) error {
    ctx := c.Request().Context()
    id := c.Param("id")
    m, err := h.apiFor(c).Movie(ctx, id)
    if err != nil {
        return h.upstreamError(c, "Movie", err)
    }
    card := cardView{Card: viewmodel.MovieCard(m, viewmodel.Options{Size: viewmodel.Large})}
    if h.Posters != nil {
        card.Poster = h.Posters.Lookup(ctx, m.ID, m.Title, m.Year)
    }
    sid := middleware.SessionID(c)
    return c.Render(http.StatusOK, "movie", detailPage{
        base: h.page(c, m.Title),
        Card: card,
        Path: c.Request().URL.Path,
        Busy: h.Carts.Busy(sid, m.ID),
    })
}

// Star renders one star with chips for their movies.
func (h *Storefront) Star(c echo.Context) error {
    s, err := h.apiFor(c).Star(c.Request().Context(), c.Param("id"))
    if err != nil {
        return h.upstreamError(c, "Star", err)
    }
    return c.Render(http.StatusOK, "star", detailPage{
        base: h.page(c, s.Name),
        Card: cardView{Card: viewmodel.StarCard(s, viewmodel.Options{Size: viewmodel.Large})},
        Path: c.Request().URL.Path,
    })
}

// upstreamError renders the catalog API's failure on the error page, keeping
// a 404 from upstream as a 404.
func (h *Storefront) upstreamError(c echo.Context, title string, err error) error {
    status := http.StatusBadGateway
    if gateway.StatusOf(err) == http.StatusNotFound {
        status = http.StatusNotFound
    }
    p := errorPage{base: h.page(c, title), Status: status, Message: err.Error()}
    return c.Render(status, "error", p)
}

func toListQuery(q listing.Query) listQuery {
    return listQuery{
        Filter:     q.Filter,
        Limit:      q.Limit,
        Sort0Field: string(q.Sort[0].Field),
        Sort0Dir:   string(q.Sort[0].Dir),
        Sort1Field: string(q.Sort[1].Field),
        Sort1Dir:   string(q.Sort[1].Dir),
    }
}

// filterParams are the filter parameters of q, carried through the sort
// form so changing the order keeps the filters.
func filterParams(q listing.Query) map[string]string {
    out := map[string]string{}
    for k, v := range listing.Default().WithFilter(q.Filter).Values() {
        switch k {
        case "limit", "offset", "order1", "dir1", "order2", "dir2":
            continue
        }
        out[k] = v[0]
    }
    return out
}
