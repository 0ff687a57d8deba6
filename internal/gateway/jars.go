package gateway

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/iliyamo/movie-storefront/internal/storage"
)

// Jars keeps one upstream cookie jar per storefront session so that the
// remote API sees a stable session of its own for every browser.  Jars
// idle for longer than the configured TTL are dropped by Sweep.
//
// A registry built with NewSharedJars keeps cookies in a storage.KV
// instead, so every instance behind a load balancer sees the same
// upstream session.
type Jars struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	jars map[string]*jarEntry
	kv   storage.KV
}

type jarEntry struct {
	jar      http.CookieJar
	lastSeen time.Time
}

// NewJars returns an empty jar registry.
func NewJars(ttl time.Duration) *Jars {
	return &Jars{ttl: ttl, now: time.Now, jars: make(map[string]*jarEntry)}
}

// NewSharedJars returns a registry whose jars live in kv.  Expiry is left
// to the store.
func NewSharedJars(kv storage.KV) *Jars {
	return &Jars{now: time.Now, jars: make(map[string]*jarEntry), kv: kv}
}

// Get returns the jar for session, creating it on first use.
func (j *Jars) Get(session string) http.CookieJar {
	if j.kv != nil {
		return &kvJar{kv: j.kv, key: storage.Key(session, cookieKey), now: j.now}
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.jars[session]
	if !ok {
		jar, _ := cookiejar.New(nil) // only fails with a non-nil options value
		e = &jarEntry{jar: jar}
		j.jars[session] = e
	}
	e.lastSeen = j.now()
	return e.jar
}

// Drop forgets the jar for session.
func (j *Jars) Drop(session string) {
	if j.kv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), jarTimeout)
		defer cancel()
		_ = j.kv.Delete(ctx, storage.Key(session, cookieKey))
		return
	}
	j.mu.Lock()
	delete(j.jars, session)
	j.mu.Unlock()
}

// Sweep removes idle jars and reports how many were removed.
func (j *Jars) Sweep() int {
	if j.ttl <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	cutoff := j.now().Add(-j.ttl)
	n := 0
	for k, e := range j.jars {
		if e.lastSeen.Before(cutoff) {
			delete(j.jars, k)
			n++
		}
	}
	return n
}

// Len reports how many sessions currently hold a jar.
func (j *Jars) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.jars)
}
