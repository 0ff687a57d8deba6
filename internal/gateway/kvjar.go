package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/movie-storefront/internal/storage"
)

const (
	cookieKey  = "upstream_cookies"
	jarTimeout = 2 * time.Second
)

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Host    string    `json:"host"`
	Path    string    `json:"path"`
	Secure  bool      `json:"secure,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c storedCookie) matches(u *url.URL) bool {
	if !strings.EqualFold(c.Host, u.Hostname()) {
		return false
	}
	if c.Secure && u.Scheme != "https" {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if p == c.Path {
		return true
	}
	if !strings.HasPrefix(p, c.Path) {
		return false
	}
	return strings.HasSuffix(c.Path, "/") || p[len(c.Path)] == '/'
}

// kvJar is a host-only cookie jar persisted as one JSON value per session.
// The upstream is a single API host, so domain cookies are stored against
// the request host.
type kvJar struct {
	kv  storage.KV
	key string
	now func() time.Time
}

func (j *kvJar) load(ctx context.Context) []storedCookie {
	raw, ok, err := j.kv.Get(ctx, j.key)
	if err != nil {
		slog.Warn("upstream cookies unavailable", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	var out []storedCookie
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("upstream cookies corrupt", "err", err)
		return nil
	}
	return out
}

func (j *kvJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jarTimeout)
	defer cancel()

	now := j.now()
	stored := j.load(ctx)
	for _, c := range cookies {
		sc := storedCookie{
			Name:   c.Name,
			Value:  c.Value,
			Host:   u.Hostname(),
			Path:   c.Path,
			Secure: c.Secure,
		}
		if sc.Path == "" || sc.Path[0] != '/' {
			sc.Path = defaultPath(u.Path)
		}
		remove := false
		switch {
		case c.MaxAge < 0:
			remove = true
		case c.MaxAge > 0:
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			sc.Expires = c.Expires
			remove = !c.Expires.After(now)
		}

		kept := stored[:0]
		for _, old := range stored {
			if old.Name == sc.Name && old.Path == sc.Path && old.Host == sc.Host {
				continue
			}
			if old.expired(now) {
				continue
			}
			kept = append(kept, old)
		}
		stored = kept
		if !remove {
			stored = append(stored, sc)
		}
	}

	if len(stored) == 0 {
		_ = j.kv.Delete(ctx, j.key)
		return
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := j.kv.Set(ctx, j.key, string(b)); err != nil {
		slog.Warn("upstream cookies not saved", "err", err)
	}
}

func (j *kvJar) Cookies(u *url.URL) []*http.Cookie {
	ctx, cancel := context.WithTimeout(context.Background(), jarTimeout)
	defer cancel()

	now := j.now()
	var out []*http.Cookie
	for _, c := range j.load(ctx) {
		if c.expired(now) || !c.matches(u) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// defaultPath follows RFC 6265 section 5.1.4.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
