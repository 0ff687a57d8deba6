// Package cart keeps every view of the shopping cart consistent.  The cart
// itself lives on the catalog API; this package only serializes mutations
// per item and tells the views to re-read it.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/model"
)

var (
	// ErrItemBusy means a mutation of the same item is still in flight.
	ErrItemBusy = errors.New("cart: item update already in progress")
	// ErrMissingItem means no movie id was given.
	ErrMissingItem = errors.New("cart: missing movie id")
)

// RejectedError is returned when the API answered 2xx but reported an error
// in the cart body.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Message) }

// API is the mutating half of the cart endpoints.  *gateway.Client
// satisfies it.
type API interface {
	AddToCart(ctx context.Context, id, title string, quantity int) (model.Cart, error)
	UpdateCartQuantity(ctx context.Context, movieID string, action model.QuantityAction) (model.Cart, error)
	RemoveFromCart(ctx context.Context, movieID string) (model.Cart, error)
}

type itemKey struct {
	session string
	item    string
}

// Coordinator runs cart mutations and announces them on the bus.
type Coordinator struct {
	bus *broadcast.Bus

	mu       sync.Mutex
	inflight map[itemKey]struct{}
}

func NewCoordinator(bus *broadcast.Bus) *Coordinator {
	return &Coordinator{bus: bus, inflight: make(map[itemKey]struct{})}
}

// Add puts quantity units of a movie in the session's cart.
func (c *Coordinator) Add(ctx context.Context, session string, api API, id, title string, quantity int) (model.Cart, error) {
	return c.mutate(ctx, session, id, "add to cart", func() (model.Cart, error) {
		return api.AddToCart(ctx, id, title, quantity)
	})
}

// Increase adds one unit of an item already in the cart.
func (c *Coordinator) Increase(ctx context.Context, session string, api API, id string) (model.Cart, error) {
	return c.mutate(ctx, session, id, "increase quantity", func() (model.Cart, error) {
		return api.UpdateCartQuantity(ctx, id, model.Increase)
	})
}

// Decrease removes one unit of an item.
func (c *Coordinator) Decrease(ctx context.Context, session string, api API, id string) (model.Cart, error) {
	return c.mutate(ctx, session, id, "decrease quantity", func() (model.Cart, error) {
		return api.UpdateCartQuantity(ctx, id, model.Decrease)
	})
}

// Remove drops an item from the cart.
func (c *Coordinator) Remove(ctx context.Context, session string, api API, id string) (model.Cart, error) {
	return c.mutate(ctx, session, id, "remove from cart", func() (model.Cart, error) {
		return api.RemoveFromCart(ctx, id)
	})
}

// Busy reports whether a mutation of item is in flight for session.  Views
// use it to disable that item's controls.
func (c *Coordinator) Busy(session, item string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[itemKey{session, item}]
	return ok
}

// Changed announces that the session's cart changed outside this
// coordinator, e.g. after checkout.
func (c *Coordinator) Changed(ctx context.Context, session string) {
	c.bus.Publish(ctx, broadcast.Signal{Topic: broadcast.TopicCart, Session: session})
}

func (c *Coordinator) mutate(ctx context.Context, session, item, op string, call func() (model.Cart, error)) (model.Cart, error) {
	if item == "" {
		return model.Cart{}, ErrMissingItem
	}
	k := itemKey{session, item}

	c.mu.Lock()
	if _, ok := c.inflight[k]; ok {
		c.mu.Unlock()
		return model.Cart{}, ErrItemBusy
	}
	c.inflight[k] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, k)
		c.mu.Unlock()
	}()

	out, err := call()
	if err != nil {
		logger.From(ctx).Warn("cart mutation failed", "op", op, "item", item, "err", err)
		return out, err
	}
	if out.Error != "" {
		return out, &RejectedError{Op: op, Message: out.Error}
	}
	c.Changed(ctx, session)
	return out, nil
}
