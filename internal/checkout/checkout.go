// Package checkout turns the session's cart into purchases.  The catalog
// API records one sale per unit, so a cart with quantities is paid unit by
// unit and the first rejection stops the run.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/movie-storefront/internal/logger"
	"github.com/iliyamo/movie-storefront/internal/model"
	"github.com/iliyamo/movie-storefront/internal/queue"
)

var (
	// ErrEmptyCart means there is nothing to pay for.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartUnavailable means the cart could not be read before paying.
	ErrCartUnavailable = errors.New("cart information not available")
)

const paymentFailed = "Payment failed for some items"

// PaymentError is a rejected per-unit payment.  Message is the API's own
// wording when it gave one.
type PaymentError struct {
	MovieID string
	Message string
	Err     error
}

func (e *PaymentError) Error() string { return e.Message }
func (e *PaymentError) Unwrap() error { return e.Err }

// API is what checkout needs from the catalog API.  *gateway.Client
// satisfies it.
type API interface {
	Cart(ctx context.Context) (model.Cart, error)
	Pay(ctx context.Context, p model.Payment) (model.PaymentResult, error)
}

// OrderPublisher announces completed orders.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// Notifier is told when the session's cart changed.
// *cart.Coordinator satisfies it.
type Notifier interface {
	Changed(ctx context.Context, session string)
}

// Result is a completed checkout.
type Result struct {
	Status        string
	Message       string
	TransactionID string
	Units         int
	Total         float64
}

// Service runs checkouts.
type Service struct {
	customerID int
	notify     Notifier
	orders     OrderPublisher
	now        func() time.Time
}

// NewService pays as customerID.  notify and orders may be nil.
func NewService(customerID int, notify Notifier, orders OrderPublisher) *Service {
	return &Service{customerID: customerID, notify: notify, orders: orders, now: time.Now}
}

// Checkout validates the form, then pays for every unit in the cart.
// Payments already accepted before a rejection are not rolled back.
func (s *Service) Checkout(ctx context.Context, session, username string, api API, form Form) (Result, error) {
	log := logger.From(ctx)
	now := s.now()
	if err := form.Validate(now); err != nil {
		return Result{}, err
	}

	c, err := api.Cart(ctx)
	if err != nil {
		log.Warn("checkout could not read cart", "session", session, "err", err)
		return Result{}, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if len(c.Items) == 0 || c.Count() == 0 {
		return Result{}, ErrEmptyCart
	}

	saleDate := now.Format(time.DateOnly)
	paid := 0
	defer func() {
		// the server may have recorded some sales even on failure
		if paid > 0 && s.notify != nil {
			s.notify.Changed(ctx, session)
		}
	}()
	for _, it := range c.Items {
		for unit := 0; unit < it.Quantity; unit++ {
			res, err := api.Pay(ctx, model.Payment{CustomerID: s.customerID, MovieID: it.ID, SaleDate: saleDate})
			if err != nil {
				msg := res.Message
				if msg == "" {
					msg = err.Error()
				}
				log.Warn("payment failed", "session", session, "movie_id", it.ID, "paid", paid, "err", err)
				return Result{}, &PaymentError{MovieID: it.ID, Message: msg, Err: err}
			}
			if !accepted(res) {
				msg := res.Message
				if msg == "" {
					msg = paymentFailed
				}
				log.Warn("payment rejected", "session", session, "movie_id", it.ID, "paid", paid, "message", msg)
				return Result{}, &PaymentError{MovieID: it.ID, Message: msg}
			}
			paid++
		}
	}

	out := Result{
		Status:        "succeeded",
		Message:       "Payment successful!",
		TransactionID: fmt.Sprintf("TXN_%d", now.UnixMilli()),
		Units:         paid,
		Total:         c.TotalPrice,
	}
	log.Info("checkout completed", "session", session, "transaction_id", out.TransactionID, "units", paid)
	s.publish(ctx, session, username, c, out, now)
	return out, nil
}

func (s *Service) publish(ctx context.Context, session, username string, c model.Cart, r Result, at time.Time) {
	if s.orders == nil {
		return
	}
	lines := make([]queue.OrderLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, queue.OrderLine{MovieID: it.ID, Title: it.Title, Quantity: it.Quantity, Price: it.Price})
	}
	ev := queue.OrderPlacedEvent{
		TransactionID: r.TransactionID,
		Session:       session,
		Username:      username,
		CustomerID:    s.customerID,
		Lines:         lines,
		Units:         r.Units,
		Total:         r.Total,
		PlacedAt:      at.UTC().Format(time.RFC3339),
	}
	if err := s.orders.PublishOrderPlaced(ctx, ev); err != nil {
		logger.From(ctx).Error("order event not published", "transaction_id", r.TransactionID, "err", err)
	}
}

// accepted treats both spellings the payment endpoint has used as success.
func accepted(r model.PaymentResult) bool {
	return r.Status == "success" || r.Status == "succeeded"
}
