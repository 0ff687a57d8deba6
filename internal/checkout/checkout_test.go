package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-storefront/internal/model"
	"github.com/iliyamo/movie-storefront/internal/queue"
)

var validForm = Form{FirstName: "Ellen", LastName: "Ripley", CardNumber: "4111 1111 1111 1111", Expiry: "12/30"}

func TestValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		edit func(*Form)
		want error
	}{
		{"valid", func(*Form) {}, nil},
		{"missing last name", func(f *Form) { f.LastName = " " }, ErrNameRequired},
		{"missing card", func(f *Form) { f.CardNumber = "" }, ErrCardRequired},
		{"short card", func(f *Form) { f.CardNumber = "4111 1111 111" }, ErrCardInvalid},
		{"long card", func(f *Form) { f.CardNumber = "41111111111111111111" }, ErrCardInvalid},
		{"thirteen digits", func(f *Form) { f.CardNumber = "4222222222222" }, nil},
		{"missing expiry", func(f *Form) { f.Expiry = "" }, ErrExpiryRequired},
		{"bad month", func(f *Form) { f.Expiry = "13/30" }, ErrExpiryFormat},
		{"no slash", func(f *Form) { f.Expiry = "1230" }, ErrExpiryFormat},
		{"last year", func(f *Form) { f.Expiry = "12/24" }, ErrCardExpired},
		{"last month", func(f *Form) { f.Expiry = "05/25" }, ErrCardExpired},
		{"this month", func(f *Form) { f.Expiry = "06/25" }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm
			tc.edit(&f)
			err := f.Validate(now)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.want, err)
		})
	}
}

func TestDetectBrand(t *testing.T) {
	cases := map[string]Brand{
		"4111":      BrandVisa,
		"5500 0000": BrandMastercard,
		"2221":      BrandMastercard,
		"3400":      BrandAmex,
		"3782":      BrandAmex,
		"3530 1113": BrandJCB,
		"3056":      BrandDiners,
		"3600":      BrandDiners,
		"3800":      BrandDiners,
		"6011":      BrandDiscover,
		"3":         BrandUnknown,
		"9999":      BrandUnknown,
		"":          BrandUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, DetectBrand(in), in)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "4111 1111 1111 1111", FormatCardNumber("4111111111111111"))
	assert.Equal(t, "4111 11", FormatCardNumber("4111-11"))
	assert.Equal(t, "", FormatCardNumber("abc"))
	assert.Equal(t, "1", FormatExpiry("1"))
	assert.Equal(t, "12/", FormatExpiry("12"))
	assert.Equal(t, "12/3", FormatExpiry("123"))
	assert.Equal(t, "12/30", FormatExpiry("12/305"))
}

type fakeAPI struct {
	cart     model.Cart
	cartErr  error
	payments []model.Payment
	reject   int // 1-based payment number to reject; 0 accepts all
	result   model.PaymentResult
	payErr   error
}

func (f *fakeAPI) Cart(context.Context) (model.Cart, error) { return f.cart, f.cartErr }

func (f *fakeAPI) Pay(_ context.Context, p model.Payment) (model.PaymentResult, error) {
	f.payments = append(f.payments, p)
	if len(f.payments) == f.reject {
		return f.result, f.payErr
	}
	return model.PaymentResult{Status: "success"}, nil
}

type notifier struct{ sessions []string }

func (n *notifier) Changed(_ context.Context, s string) { n.sessions = append(n.sessions, s) }

type orders struct {
	events []queue.OrderPlacedEvent
	err    error
}

func (o *orders) PublishOrderPlaced(_ context.Context, ev queue.OrderPlacedEvent) error {
	o.events = append(o.events, ev)
	return o.err
}

func newService(n *notifier, o *orders) *Service {
	var (
		nt Notifier
		op OrderPublisher
	)
	if n != nil {
		nt = n
	}
	if o != nil {
		op = o
	}
	s := NewService(1, nt, op)
	s.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func twoItemCart() model.Cart {
	return model.Cart{
		Items: []model.CartItem{
			{ID: "tt1", Title: "Alien", Price: 10, Quantity: 2},
			{ID: "tt2", Title: "Heat", Price: 10, Quantity: 1},
		},
		TotalPrice: 30,
	}
}

func TestCheckout_PaysEveryUnit(t *testing.T) {
	n, o := &notifier{}, &orders{}
	api := &fakeAPI{cart: twoItemCart()}

	res, err := newService(n, o).Checkout(context.Background(), "s1", "ripley", api, validForm)
	require.NoError(t, err)
	assert.Equal(t, "Payment successful!", res.Message)
	assert.Equal(t, "TXN_1749981600000", res.TransactionID)
	assert.Equal(t, 3, res.Units)

	require.Len(t, api.payments, 3)
	assert.Equal(t, model.Payment{CustomerID: 1, MovieID: "tt1", SaleDate: "2025-06-15"}, api.payments[0])
	assert.Equal(t, "tt1", api.payments[1].MovieID)
	assert.Equal(t, "tt2", api.payments[2].MovieID)

	assert.Equal(t, []string{"s1"}, n.sessions)
	require.Len(t, o.events, 1)
	assert.Equal(t, res.TransactionID, o.events[0].TransactionID)
	assert.Equal(t, "ripley", o.events[0].Username)
	assert.Len(t, o.events[0].Lines, 2)
	assert.InDelta(t, 30.0, o.events[0].Total, 0.001)
}

func TestCheckout_AbortsOnFirstRejection(t *testing.T) {
	n, o := &notifier{}, &orders{}
	api := &fakeAPI{cart: twoItemCart(), reject: 2, result: model.PaymentResult{Status: "fail", Message: "Movie not available"}}

	_, err := newService(n, o).Checkout(context.Background(), "s1", "", api, validForm)
	var pe *PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Movie not available", pe.Error())
	assert.Len(t, api.payments, 2, "remaining units are not submitted")
	assert.Equal(t, []string{"s1"}, n.sessions, "cart views reload after a partial run")
	assert.Empty(t, o.events)
}

func TestCheckout_RejectionWithoutMessage(t *testing.T) {
	api := &fakeAPI{cart: twoItemCart(), reject: 1, result: model.PaymentResult{Status: "error"}}
	n := &notifier{}
	_, err := newService(n, nil).Checkout(context.Background(), "s1", "", api, validForm)
	require.Error(t, err)
	assert.Equal(t, "Payment failed for some items", err.Error())
	assert.Empty(t, n.sessions)
}

func TestCheckout_TransportFailureUsesErrorText(t *testing.T) {
	boom := errors.New("payment failed (HTTP 502): bad gateway")
	api := &fakeAPI{cart: twoItemCart(), reject: 1, payErr: boom}
	_, err := newService(nil, nil).Checkout(context.Background(), "s1", "", api, validForm)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, boom.Error(), err.Error())
}

func TestCheckout_Guards(t *testing.T) {
	s := newService(nil, nil)

	_, err := s.Checkout(context.Background(), "s1", "", &fakeAPI{}, validForm)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = s.Checkout(context.Background(), "s1", "", &fakeAPI{cartErr: errors.New("down")}, validForm)
	assert.ErrorIs(t, err, ErrCartUnavailable)

	bad := validForm
	bad.FirstName = ""
	api := &fakeAPI{cart: twoItemCart()}
	_, err = s.Checkout(context.Background(), "s1", "", api, bad)
	assert.Equal(t, ErrNameRequired, err)
	assert.Empty(t, api.payments)
}

func TestCheckout_PublishFailureDoesNotFailOrder(t *testing.T) {
	o := &orders{err: errors.New("broker down")}
	res, err := newService(nil, o).Checkout(context.Background(), "s1", "", &fakeAPI{cart: twoItemCart()}, validForm)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", res.Status)
	assert.Len(t, o.events, 1)
}
