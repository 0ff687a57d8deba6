// Package broadcast is the storefront's in-process publish/subscribe
// channel.  Views that show cart or identity data subscribe to a topic and
// re-read their source of truth whenever a signal arrives.
//
// Delivery is synchronous and ordered: Publish calls every matching
// observer in subscription order before returning.  Observers must not
// block for long; anything slow should be handed to a goroutine by the
// observer itself.
package broadcast

import (
	"context"
	"sync"
	"time"
)

// Topic names a class of state change.
type Topic string

const (
	// TopicCart is published after every successful cart mutation.
	TopicCart Topic = "cart.updated"
	// TopicAuth is published after login and logout.
	TopicAuth Topic = "auth.updated"
)

// Signal is one notification.  Session scopes it to a browser session;
// Origin identifies the storefront instance that first published it.
type Signal struct {
	Topic   Topic     `json:"topic"`
	Session string    `json:"session"`
	Origin  string    `json:"origin,omitempty"`
	At      time.Time `json:"at"`
}

// Observer receives signals.
type Observer interface {
	Notify(ctx context.Context, s Signal)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, s Signal)

func (f ObserverFunc) Notify(ctx context.Context, s Signal) { f(ctx, s) }

type subscription struct {
	id       uint64
	topic    Topic
	session  string
	observer Observer
}

// Bus fans signals out to subscribers.  The zero value is not usable; call
// New.
type Bus struct {
	mu    sync.RWMutex
	next  uint64
	subs  []subscription
	taps  []func(context.Context, Signal)
	clock func() time.Time
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{clock: time.Now}
}

// Subscribe registers o for topic.  An empty session receives the topic for
// every session.  The returned function removes the subscription and may be
// called more than once.
func (b *Bus) Subscribe(topic Topic, session string, o Observer) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, topic: topic, session: session, observer: o})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Tap registers fn to see every locally published signal before the
// observers do.  It is how relays forward signals to other instances.
func (b *Bus) Tap(fn func(context.Context, Signal)) {
	b.mu.Lock()
	b.taps = append(b.taps, fn)
	b.mu.Unlock()
}

// Publish stamps s (when At is zero) and delivers it to taps and matching
// observers.
func (b *Bus) Publish(ctx context.Context, s Signal) {
	if s.At.IsZero() {
		s.At = b.clock()
	}
	b.mu.RLock()
	taps := append([]func(context.Context, Signal){}, b.taps...)
	b.mu.RUnlock()
	for _, fn := range taps {
		fn(ctx, s)
	}
	b.Deliver(ctx, s)
}

// Deliver hands s to matching observers without running taps.  Relays use
// it for signals that arrived from another instance.
func (b *Bus) Deliver(ctx context.Context, s Signal) {
	b.mu.RLock()
	matched := make([]Observer, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == s.Topic && (sub.session == "" || sub.session == s.Session) {
			matched = append(matched, sub.observer)
		}
	}
	b.mu.RUnlock()
	for _, o := range matched {
		o.Notify(ctx, s)
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
