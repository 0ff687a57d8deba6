package session

import (
	"context"
	"sync"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/logger"
)

// Watcher keeps one session's identity current.  It reloads from the store
// on every auth signal, including signals relayed from other instances.
type Watcher struct {
	store   *Store
	session string

	mu       sync.RWMutex
	identity Identity
	onChange func(Identity)
	unsub    func()
}

func NewWatcher(store *Store, session string) *Watcher {
	return &Watcher{store: store, session: session}
}

// OnChange registers fn to run after every reload.
func (w *Watcher) OnChange(fn func(Identity)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Attach loads the identity and subscribes to auth signals.
func (w *Watcher) Attach(ctx context.Context, bus *broadcast.Bus) {
	w.Reload(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsub == nil {
		w.unsub = bus.Subscribe(broadcast.TopicAuth, w.session, w)
	}
}

func (w *Watcher) Detach() {
	w.mu.Lock()
	unsub := w.unsub
	w.unsub = nil
	w.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Notify implements broadcast.Observer.
func (w *Watcher) Notify(ctx context.Context, _ broadcast.Signal) {
	w.Reload(ctx)
}

// Reload reads the identity from storage.  A storage failure reads as
// signed out.
func (w *Watcher) Reload(ctx context.Context) {
	id, err := w.store.Load(ctx, w.session)
	if err != nil {
		logger.From(ctx).Warn("identity reload failed", "session", w.session, "err", err)
		id = Identity{}
	}
	w.mu.Lock()
	w.identity = id
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// Identity returns the last loaded identity.
func (w *Watcher) Identity() Identity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.identity
}
