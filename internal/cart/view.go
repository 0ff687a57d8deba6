package cart

import (
	"context"
	"sync"

	"github.com/iliyamo/movie-storefront/internal/broadcast"
	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/model"
)

// Reader fetches the authoritative cart.  *gateway.Client satisfies it.
type Reader interface {
	Cart(ctx context.Context) (model.Cart, error)
}

// View is a read model of one session's cart.  It never changes its own
// numbers; every cart signal makes it fetch the cart again.
type View struct {
	session string
	api     Reader

	mu       sync.RWMutex
	cart     model.Cart
	err      error
	onChange func(model.Cart, error)
	unsub    func()
	pending  chan struct{}
	stop     chan struct{}
}

func NewView(session string, api Reader) *View {
	return &View{session: session, api: api}
}

// OnChange registers fn to run after every reload.
func (v *View) OnChange(fn func(model.Cart, error)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Attach loads the cart and subscribes the view to the session's cart
// signals.  Attaching twice keeps a single subscription.
func (v *View) Attach(ctx context.Context, bus *broadcast.Bus) {
	v.Reload(ctx)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsub == nil {
		v.unsub = bus.Subscribe(broadcast.TopicCart, v.session, v)
	}
}

// AttachAsync is Attach for long-lived observers.  Signals only mark the
// view stale and a background goroutine bound to ctx does the reload, so
// the publisher never waits on the upstream.  Signals arriving while a
// reload is queued collapse into it.
func (v *View) AttachAsync(ctx context.Context, bus *broadcast.Bus) {
	v.Reload(ctx)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.unsub != nil {
		return
	}
	v.pending = make(chan struct{}, 1)
	v.stop = make(chan struct{})
	go v.loop(ctx, v.pending, v.stop)
	v.unsub = bus.Subscribe(broadcast.TopicCart, v.session, v)
}

func (v *View) loop(ctx context.Context, pending, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-pending:
			v.Reload(ctx)
		}
	}
}

// Detach ends the subscription.
func (v *View) Detach() {
	v.mu.Lock()
	unsub, stop := v.unsub, v.stop
	v.unsub, v.stop, v.pending = nil, nil, nil
	v.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	if stop != nil {
		close(stop)
	}
}

// Notify implements broadcast.Observer.
func (v *View) Notify(ctx context.Context, _ broadcast.Signal) {
	v.mu.RLock()
	pending := v.pending
	v.mu.RUnlock()
	if pending == nil {
		v.Reload(ctx)
		return
	}
	select {
	case pending <- struct{}{}:
	default:
	}
}

// Reload fetches the cart.  On failure the last good cart is kept and
// Err reports the failure.
func (v *View) Reload(ctx context.Context) {
	c, err := v.api.Cart(ctx)

	v.mu.Lock()
	if err != nil {
		logger.From(ctx).Warn("cart reload failed", "session", v.session, "err", err)
		v.err = err
	} else {
		v.cart, v.err = c, nil
	}
	cur, cerr, fn := v.cart, v.err, v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn(cur, cerr)
	}
}

// Count is the number of units in the cart.
func (v *View) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cart.Count()
}

// Total is the server's total price.
func (v *View) Total() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cart.TotalPrice
}

// Items returns the cart lines; never nil.
func (v *View) Items() []model.CartItem {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]model.CartItem{}, v.cart.Items...)
}

// Cart returns the last successfully read cart.
func (v *View) Cart() model.Cart {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cart
}

func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}
