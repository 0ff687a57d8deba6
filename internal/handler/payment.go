package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/cart"
    "github.com/iliyamo/movie-storefront/internal/checkout"
    "github.com/iliyamo/movie-storefront/internal/logger"
    "github.com/iliyamo/movie-storefront/internal/middleware"
)

const (
    msgEmptyCart       = "Your cart is empty"
    msgCartUnavailable = "Cart information not available"
)

type paymentPage struct {
    base
    Count int
    Total float64
    Form  checkout.Form
    Brand checkout.Brand
}

type paymentDonePage struct {
    base
    Result checkout.Result
}

// Payment renders the card form with the cart's totals.
func (h *Storefront) Payment(c echo.Context) error {
    return h.renderPayment(c, http.StatusOK, checkout.Form{}, "")
}

// Pay submits the card form.  Numbers are normalized the way the form
// formats them while typing before they are validated.
func (h *Storefront) Pay(c echo.Context) error {
    ctx := c.Request().Context()
    var f checkout.Form
    if err := c.Bind(&f); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, "invalid payment form")
    }
    f.CardNumber = checkout.FormatCardNumber(f.CardNumber)
    f.Expiry = checkout.FormatExpiry(f.Expiry)

    sid := middleware.SessionID(c)
    id, err := h.Sessions.Load(ctx, sid)
    if err != nil {
        logger.From(ctx).Warn("payment: identity unavailable", "err", err)
    }

    res, err := h.Checkout.Checkout(ctx, sid, id.Username(), h.apiFor(c), f)
    if err != nil {
        var verr checkout.ValidationError
        var perr *checkout.PaymentError
        switch {
        case errors.As(err, &verr):
            return h.renderPayment(c, http.StatusUnprocessableEntity, f, err.Error())
        case errors.Is(err, checkout.ErrEmptyCart):
            return h.renderPayment(c, http.StatusConflict, f, msgEmptyCart)
        case errors.Is(err, checkout.ErrCartUnavailable):
            return h.renderPayment(c, http.StatusBadGateway, f, msgCartUnavailable)
        case errors.As(err, &perr):
            return h.renderPayment(c, http.StatusPaymentRequired, f, perr.Message)
        default:
            return h.renderPayment(c, http.StatusBadGateway, f, err.Error())
        }
    }
    return c.Render(http.StatusOK, "payment_done", paymentDonePage{
        base:   h.page(c, "Payment Confirmation"),
        Result: res,
    })
}

func (h *Storefront) renderPayment(c echo.Context, status int, f checkout.Form, msg string) error {
    v := cart.NewView(middleware.SessionID(c), h.apiFor(c))
    v.Reload(c.Request().Context())
    p := paymentPage{
        base:  h.page(c, "Payment"),
        Count: v.Count(),
        Total: v.Total(),
        Form:  f,
        Brand: checkout.DetectBrand(f.CardNumber),
    }
    p.Error = msg
    if msg == "" && v.Err() != nil {
        p.Error = msgCartUnavailable
    }
    return c.Render(status, "payment", p)
}
