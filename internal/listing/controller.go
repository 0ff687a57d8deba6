package listing

import (
	"context"
	"net/url"
	"sync"

	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/model"
	"github.com/iliyamo/movie-storefront/internal/viewmodel"
)

// Fetcher runs a listing search.  *gateway.Client satisfies it.
type Fetcher interface {
	Search(ctx context.Context, params url.Values) ([]model.Movie, error)
}

// View is what the listing page renders.
type View struct {
	Query   Query
	Cards   []viewmodel.Card
	Loading bool
	Err     error
	HasPrev bool
	HasNext bool
	Page    int
}

// Controller reconciles one session's listing state with the URL, the
// snapshot and the catalog API.  Each state change triggers exactly one
// fetch; a response that arrives after a newer fetch has started is dropped.
type Controller struct {
	session string
	fetch   Fetcher
	snaps   *Snapshots
	card    viewmodel.Options

	mu    sync.Mutex
	state Query
	seq   uint64
	view  View
}

// NewController returns a controller starting at Default().  snaps may be
// nil, in which case nothing is persisted or restored.
func NewController(session string, f Fetcher, snaps *Snapshots) *Controller {
	q := Default()
	return &Controller{
		session: session,
		fetch:   f,
		snaps:   snaps,
		card:    viewmodel.Options{Size: viewmodel.Small},
		state:   q,
		view:    View{Query: q, Cards: []viewmodel.Card{}, Page: 1},
	}
}

// Activate settles the state for a request to the listing with parameters v.
//
// A request that carries no listing parameter restores an unexpired snapshot
// if there is one.  Otherwise v is parsed, with defaults filling whatever is
// absent.  The returned bool reports whether the settled state differs from
// v, i.e. the caller should redirect to q.URL() so the address bar carries
// the canonical state.  The settled state is saved as the new snapshot.
func (c *Controller) Activate(ctx context.Context, v url.Values) (q Query, redirect bool, err error) {
	q = Parse(v)
	if !HasState(v) && c.snaps != nil {
		restored, ok, lerr := c.snaps.Load(ctx, c.session)
		if lerr != nil {
			logger.From(ctx).Warn("listing snapshot unavailable", "session", c.session, "err", lerr)
		} else if ok {
			q = restored
		}
	}

	c.mu.Lock()
	c.state = q
	c.mu.Unlock()

	if c.snaps != nil {
		if err := c.snaps.Save(ctx, c.session, q); err != nil {
			return q, false, err
		}
	}
	return q, q.Encode() != v.Encode(), nil
}

// Query returns the current state.
func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the last rendered view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Change moves to q, saves the snapshot and refreshes once.
func (c *Controller) Change(ctx context.Context, q Query) View {
	c.mu.Lock()
	c.state = q
	c.mu.Unlock()
	if c.snaps != nil {
		if err := c.snaps.Save(ctx, c.session, q); err != nil {
			logger.From(ctx).Warn("listing snapshot not saved", "session", c.session, "err", err)
		}
	}
	return c.Refresh(ctx)
}

func (c *Controller) SetLimit(ctx context.Context, n int) View {
	return c.Change(ctx, c.Query().WithLimit(n))
}

func (c *Controller) SetSort(ctx context.Context, level int, f SortField, d SortDir) View {
	return c.Change(ctx, c.Query().WithSort(level, f, d))
}

func (c *Controller) SetFilter(ctx context.Context, f Filter) View {
	return c.Change(ctx, c.Query().WithFilter(f))
}

func (c *Controller) Next(ctx context.Context) View { return c.Change(ctx, c.Query().Next()) }
func (c *Controller) Prev(ctx context.Context) View { return c.Change(ctx, c.Query().Prev()) }

// Refresh fetches the current state.  If another Refresh starts before
// this one's response arrives, this response is discarded and the view
// reflects only the newer request.
func (c *Controller) Refresh(ctx context.Context) View {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	q := c.state
	c.view.Query = q
	c.view.Loading = true
	c.view.Err = nil
	c.mu.Unlock()

	movies, err := c.fetch.Search(ctx, q.Values())

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		logger.From(ctx).Debug("dropping stale listing response", "session", c.session, "seq", seq)
		return c.view
	}

	v := View{
		Query:   q,
		Cards:   []viewmodel.Card{},
		Page:    q.Page(),
		HasPrev: q.Offset > 0,
	}
	if err != nil {
		v.Err = err
		c.view = v
		return v
	}
	v.Cards = viewmodel.MovieCards(movies, c.card)
	v.HasNext = len(movies) >= q.Limit
	c.view = v
	return v
}
