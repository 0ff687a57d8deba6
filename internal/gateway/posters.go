package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-storefront/internal/logger"
)

// noPoster marks a cached negative lookup.
const noPoster = "N/A"

// Posters looks up poster URLs on OMDb.  Lookups are best effort: any
// failure yields "" and is only logged.  Results, including misses, are
// cached in Redis when a client is configured.
type Posters struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
	Redis   *redis.Client
	TTL     time.Duration
	Prefix  string
}

type omdbResponse struct {
	Response string `json:"Response"`
	Title    string `json:"Title"`
	Poster   string `json:"Poster"`
	Error    string `json:"Error"`
}

// Lookup returns the poster URL for a movie.  Ids in the tt… form are
// looked up directly; anything else falls back to a title (+year) search.
func (p *Posters) Lookup(ctx context.Context, id, title string, year *int) string {
	if p == nil || p.APIKey == "" {
		return ""
	}
	log := logger.From(ctx)
	key := p.prefix() + id
	if p.Redis != nil {
		if v, err := p.Redis.Get(ctx, key).Result(); err == nil {
			if v == noPoster {
				return ""
			}
			return v
		}
	}

	q := url.Values{}
	q.Set("apikey", p.APIKey)
	q.Set("plot", "short")
	if strings.HasPrefix(id, "tt") {
		q.Set("i", id)
	} else {
		q.Set("t", title)
		if year != nil {
			q.Set("y", strconv.Itoa(*year))
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL()+"?"+q.Encode(), nil)
	if err != nil {
		return ""
	}
	hc := p.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		log.Warn("omdb: request failed", "id", id, "err", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn("omdb: unexpected status", "id", id, "status", resp.StatusCode)
		return ""
	}
	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn("omdb: undecodable response", "id", id, "err", err)
		return ""
	}

	poster := ""
	if body.Response == "True" && body.Poster != "" && body.Poster != noPoster {
		poster = body.Poster
	}
	if p.Redis != nil {
		v := poster
		if v == "" {
			v = noPoster
		}
		_ = p.Redis.Set(ctx, key, v, p.ttl()).Err()
	}
	return poster
}

func (p *Posters) baseURL() string {
	if p.BaseURL == "" {
		return "https://www.omdbapi.com/"
	}
	return p.BaseURL
}

func (p *Posters) prefix() string {
	if p.Prefix == "" {
		return "poster:"
	}
	return p.Prefix
}

func (p *Posters) ttl() time.Duration {
	if p.TTL <= 0 {
		return 24 * time.Hour
	}
	return p.TTL
}
