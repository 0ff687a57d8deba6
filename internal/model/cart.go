package model

// CartItem is one line of the server-owned shopping cart.
type CartItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Cart is the authoritative cart returned by GET /shopping_cart.  Mutating
// endpoints return the same shape together with a message.
type Cart struct {
	SessionID      string     `json:"sessionId"`
	LastAccessTime string     `json:"lastAccessTime"`
	Items          []CartItem `json:"cartItems"`
	TotalPrice     float64    `json:"totalPrice"`
	Message        string     `json:"message,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Count returns the number of units in the cart (sum of quantities).
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// QuantityAction is the verb accepted by PUT /shopping_cart.
type QuantityAction string

const (
	Increase QuantityAction = "increase"
	Decrease QuantityAction = "decrease"
)

// Payment is the body of POST /payment.  One payment is submitted per unit
// of quantity in the cart.
type Payment struct {
	CustomerID int    `json:"customerId"`
	MovieID    string `json:"movieId"`
	SaleDate   string `json:"saleDate"`
}

// PaymentResult is the response of POST /payment.
type PaymentResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
