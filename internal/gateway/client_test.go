package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-storefront/internal/model"
)

func newAPI(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_ForwardsParamsAndDecodes(t *testing.T) {
	var got url.Values
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		got = r.URL.Query()
		_, _ = io.WriteString(w, `[{"id":"tt1","title":"A","rating":7.1,"vote_count":10},{"id":"tt2","title":"B"}]`)
	})
	c := New(srv.URL + "/api/")

	params := url.Values{"title": {"term"}, "limit": {"10"}, "offset": {"20"}}
	movies, err := c.Search(context.Background(), params)

	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "tt1", movies[0].ID)
	require.NotNil(t, movies[0].Rating)
	assert.Nil(t, movies[1].Rating)
	assert.Equal(t, params, got)
}

func TestMoviesPage_QueryAndEmptyBody(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movies_page", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		_, _ = io.WriteString(w, `null`)
	})

	movies, err := New(srv.URL).MoviesPage(context.Background(), 25, 50)
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestDetail_EscapesID(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stars/a%2Fb", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"id":"a/b","name":"Slash","movies":[]}`)
	})

	s, err := New(srv.URL).Star(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "Slash", s.Name)
}

func TestNon2xx_ReturnsHTTPErrorWithBody(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	})

	_, err := New(srv.URL).Movie(context.Background(), "tt1")

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, "database unavailable", he.Body)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestNon2xx_EmptyBodyMessage(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := New(srv.URL).Genres(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No response body")
}

func TestMalformedBody_ReturnsDecodeError(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})

	_, err := New(srv.URL).Cart(context.Background())

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "invalid JSON response")
	assert.Equal(t, 0, StatusOf(err))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base).TitleInitials(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestCartMutations_WireFormat(t *testing.T) {
	type seen struct {
		method string
		query  url.Values
		body   map[string]any
		ctype  string
	}
	var calls []seen
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shopping_cart", r.URL.Path)
		s := seen{method: r.Method, query: r.URL.Query(), ctype: r.Header.Get("Content-Type")}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				assert.NoError(t, json.Unmarshal(raw, &s.body))
			}
		}
		calls = append(calls, s)
		_, _ = io.WriteString(w, `{"cartItems":[{"id":"tt1","title":"A","price":10,"quantity":2}],"totalPrice":20}`)
	})
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.AddToCart(ctx, "tt1", "A", 0)
	require.NoError(t, err)
	_, err = c.UpdateCartQuantity(ctx, "tt1", model.Increase)
	require.NoError(t, err)
	cart, err := c.RemoveFromCart(ctx, "tt1")
	require.NoError(t, err)

	require.Len(t, calls, 3)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "application/json", calls[0].ctype)
	assert.Equal(t, map[string]any{"id": "tt1", "title": "A", "quantity": float64(1)}, calls[0].body)

	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, map[string]any{"movieId": "tt1", "action": "increase"}, calls[1].body)

	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "tt1", calls[2].query.Get("movieId"))

	assert.Equal(t, 2, cart.Count())
	assert.Equal(t, 20.0, cart.TotalPrice)
}

func TestLogin_FormEncoded(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "anteater", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		_, _ = io.WriteString(w, `{"status":"success"}`)
	})

	res, err := New(srv.URL).Login(context.Background(), "anteater", "secret")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
}

func TestPay_ServerMessageVerbatim(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":"error","message":"Movie tt9 is not for sale"}`)
	})

	_, err := New(srv.URL).Pay(context.Background(), model.Payment{CustomerID: 1, MovieID: "tt9", SaleDate: "2026-10-16"})
	require.Error(t, err)
	assert.Equal(t, "Movie tt9 is not for sale", err.Error())
}

func TestPay_NonJSONFailure(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := New(srv.URL).Pay(context.Background(), model.Payment{MovieID: "tt9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment failed (HTTP 500): boom")
}

func TestWithJar_CarriesUpstreamSession(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("JSESSIONID"); err != nil {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
			_, _ = io.WriteString(w, `{"cartItems":[],"totalPrice":0}`)
			return
		}
		_, _ = io.WriteString(w, `{"sessionId":"abc","cartItems":[],"totalPrice":0}`)
	})
	jars := NewJars(time.Hour)
	base := New(srv.URL)
	ctx := context.Background()

	first, err := base.WithJar(jars.Get("s1")).Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.SessionID)

	second, err := base.WithJar(jars.Get("s1")).Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", second.SessionID)

	other, err := base.WithJar(jars.Get("s2")).Cart(ctx)
	require.NoError(t, err)
	assert.Empty(t, other.SessionID, "sessions must not share upstream cookies")
}

func TestJars_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	j := NewJars(time.Hour)
	j.now = func() time.Time { return now }

	j.Get("old")
	now = now.Add(30 * time.Minute)
	j.Get("fresh")
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, j.Sweep())
	assert.Equal(t, 1, j.Len())
	j.Drop("fresh")
	assert.Equal(t, 0, j.Len())
}

func TestMetrics_CountsByStatus(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/genres" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(srv.URL, WithMetrics(m))
	ctx := context.Background()

	_, _ = c.Genres(ctx)
	_, _ = c.Movie(ctx, "missing")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("list genres", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("movie detail", "404")))
}

func TestStatusOf_Unwrapped(t *testing.T) {
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

func TestGenres_NumericIDs(t *testing.T) {
	srv := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genres":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Action"},{"id":"2","name":"Comedy"}]`)
		default:
			_, _ = io.WriteString(w, `{"id":"tt1","title":"A","genres":[{"id":3,"name":"Drama"}]}`)
		}
	})
	c := New(srv.URL)

	genres, err := c.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.GenreTag{{ID: "1", Name: "Action"}, {ID: "2", Name: "Comedy"}}, genres)

	m, err := c.Movie(context.Background(), "tt1")
	require.NoError(t, err)
	require.Len(t, m.Genres, 1)
	assert.Equal(t, model.ID("3"), m.Genres[0].ID)

	raw, err := json.Marshal(m.Genres[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3","name":"Drama"}`, string(raw))
}
