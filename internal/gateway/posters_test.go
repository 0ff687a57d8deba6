package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestPosters_DisabledWithoutKey(t *testing.T) {
	var p *Posters
	assert.Equal(t, "", p.Lookup(context.Background(), "tt1", "A", nil))
	assert.Equal(t, "", (&Posters{}).Lookup(context.Background(), "tt1", "A", nil))
}

func TestPosters_LookupAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("apikey"))
		switch q.Get("i") {
		case "tt1":
			_, _ = io.WriteString(w, `{"Response":"True","Title":"A","Poster":"https://img/a.jpg"}`)
		default:
			_, _ = io.WriteString(w, `{"Response":"True","Title":"B","Poster":"N/A"}`)
		}
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := &Posters{APIKey: "k", BaseURL: srv.URL, Redis: rdb}
	ctx := context.Background()

	assert.Equal(t, "https://img/a.jpg", p.Lookup(ctx, "tt1", "A", nil))
	assert.Equal(t, "https://img/a.jpg", p.Lookup(ctx, "tt1", "A", nil))
	assert.Equal(t, "", p.Lookup(ctx, "tt2", "B", nil))
	assert.Equal(t, "", p.Lookup(ctx, "tt2", "B", nil))

	assert.Equal(t, int32(2), hits.Load())
}

func TestPosters_TitleFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Empty(t, q.Get("i"))
		assert.Equal(t, "Local Title", q.Get("t"))
		assert.Equal(t, "1999", q.Get("y"))
		_, _ = io.WriteString(w, `{"Response":"False","Error":"Movie not found!"}`)
	}))
	defer srv.Close()

	y := 1999
	p := &Posters{APIKey: "k", BaseURL: srv.URL}
	assert.Equal(t, "", p.Lookup(context.Background(), "local-1", "Local Title", &y))
}
