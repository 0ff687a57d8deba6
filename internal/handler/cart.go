package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/movie-storefront/internal/cart"
    "github.com/iliyamo/movie-storefront/internal/gateway"
    "github.com/iliyamo/movie-storefront/internal/middleware"
)

type cartLine struct {
    ID       string
    Title    string
    Price    float64
    Quantity int
    Subtotal float64
    Busy     bool
}

type cartPage struct {
    base
    Items []cartLine
    Count int
    Total float64
}

// CartSummary is the JSON body of GET /api/cart.
type CartSummary struct {
    Amount int     `json:"amount"`
    Total  float64 `json:"total"`
}

// Cart renders the shopping cart.
func (h *Storefront) Cart(c echo.Context) error {
    ctx := c.Request().Context()
    sid := middleware.SessionID(c)
    v := cart.NewView(sid, h.apiFor(c))
    v.Reload(ctx)

    p := cartPage{base: h.page(c, "Shopping Cart"), Count: v.Count(), Total: v.Total()}
    if err := v.Err(); err != nil {
        p.Error = "Failed to load cart: " + err.Error()
    }
    for _, it := range v.Items() {
        p.Items = append(p.Items, cartLine{
            ID:       it.ID,
            Title:    it.Title,
            Price:    it.Price,
            Quantity: it.Quantity,
            Subtotal: it.Price * float64(it.Quantity),
            Busy:     h.Carts.Busy(sid, it.ID),
        })
    }
    return c.Render(http.StatusOK, "cart", p)
}

// AddToCart handles the add-to-cart form and returns to the page it was
// posted from.
func (h *Storefront) AddToCart(c echo.Context) error {
    qty, err := strconv.Atoi(c.FormValue("quantity"))
    if err != nil || qty < 1 {
        qty = 1
    }
    _, err = h.Carts.Add(c.Request().Context(), middleware.SessionID(c), h.apiFor(c),
        c.FormValue("id"), c.FormValue("title"), qty)
    if err != nil {
        return h.cartError(c, err)
    }
    return c.Redirect(http.StatusSeeOther, localPath(c.FormValue("return"), "/shopping-cart"))
}

// IncreaseItem adds one unit of :id.
func (h *Storefront) IncreaseItem(c echo.Context) error {
    _, err := h.Carts.Increase(c.Request().Context(), middleware.SessionID(c), h.apiFor(c), c.Param("id"))
    return h.afterCartChange(c, err)
}

// DecreaseItem removes one unit of :id.
func (h *Storefront) DecreaseItem(c echo.Context) error {
    _, err := h.Carts.Decrease(c.Request().Context(), middleware.SessionID(c), h.apiFor(c), c.Param("id"))
    return h.afterCartChange(c, err)
}

// RemoveItem drops :id from the cart.
func (h *Storefront) RemoveItem(c echo.Context) error {
    _, err := h.Carts.Remove(c.Request().Context(), middleware.SessionID(c), h.apiFor(c), c.Param("id"))
    return h.afterCartChange(c, err)
}

// CartJSON returns the cart summary used by scripts.
func (h *Storefront) CartJSON(c echo.Context) error {
    v := cart.NewView(middleware.SessionID(c), h.apiFor(c))
    v.Reload(c.Request().Context())
    if err := v.Err(); err != nil {
        return echo.NewHTTPError(http.StatusBadGateway, err.Error())
    }
    return c.JSON(http.StatusOK, CartSummary{Amount: v.Count(), Total: v.Total()})
}

func (h *Storefront) afterCartChange(c echo.Context, err error) error {
    if err != nil {
        return h.cartError(c, err)
    }
    return c.Redirect(http.StatusSeeOther, "/shopping-cart")
}

// cartError renders a failed mutation.  The cart itself is unchanged.
func (h *Storefront) cartError(c echo.Context, err error) error {
    status := http.StatusBadGateway
    var rejected *cart.RejectedError
    switch {
    case errors.Is(err, cart.ErrItemBusy):
        status = http.StatusConflict
    case errors.Is(err, cart.ErrMissingItem):
        status = http.StatusBadRequest
    case errors.As(err, &rejected):
        status = http.StatusUnprocessableEntity
    case gateway.StatusOf(err) >= 400 && gateway.StatusOf(err) < 500:
        status = gateway.StatusOf(err)
    }
    p := errorPage{base: h.page(c, "Shopping Cart"), Status: status, Message: err.Error()}
    return c.Render(status, "error", p)
}
