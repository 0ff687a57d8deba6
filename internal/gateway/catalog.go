package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/movie-storefront/internal/model"
)

// MoviesPage fetches the top-N browse page.
func (c *Client) MoviesPage(ctx context.Context, limit, offset int) ([]model.Movie, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out []model.Movie
	_, err := c.do(ctx, request{op: "list movies", method: http.MethodGet, path: "/movies_page", query: q}, &out)
	return nonNil(out), err
}

// Search runs the filtered, sorted and paginated movie search.  params is
// sent as-is; building it is the listing controller's job.
func (c *Client) Search(ctx context.Context, params url.Values) ([]model.Movie, error) {
	var out []model.Movie
	_, err := c.do(ctx, request{op: "search movies", method: http.MethodGet, path: "/search", query: params}, &out)
	return nonNil(out), err
}

// Movie fetches one movie by id.
func (c *Client) Movie(ctx context.Context, id string) (model.Movie, error) {
	var out model.Movie
	_, err := c.do(ctx, request{op: "movie detail", method: http.MethodGet, path: "/movies/" + url.PathEscape(id)}, &out)
	return out, err
}

// Star fetches one star by id.
func (c *Client) Star(ctx context.Context, id string) (model.Star, error) {
	var out model.Star
	_, err := c.do(ctx, request{op: "star detail", method: http.MethodGet, path: "/stars/" + url.PathEscape(id)}, &out)
	return out, err
}

// Genres lists every genre as id/name pairs.
func (c *Client) Genres(ctx context.Context) ([]model.GenreTag, error) {
	var out []model.GenreTag
	_, err := c.do(ctx, request{op: "list genres", method: http.MethodGet, path: "/genres"}, &out)
	if out == nil {
		out = []model.GenreTag{}
	}
	return out, err
}

// TitleInitials lists the characters titles can be browsed by.
func (c *Client) TitleInitials(ctx context.Context) ([]string, error) {
	var out []string
	_, err := c.do(ctx, request{op: "list title initials", method: http.MethodGet, path: "/browse/title-initials"}, &out)
	if out == nil {
		out = []string{}
	}
	return out, err
}

func nonNil(m []model.Movie) []model.Movie {
	if m == nil {
		return []model.Movie{}
	}
	return m
}
