// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedQueue is the durable queue carrying OrderPlacedEvent.
const OrderPlacedQueue = "order.placed"

// OrderLine is one purchased movie.
type OrderLine struct {
    MovieID  string  `json:"movie_id"`
    Title    string  `json:"title"`
    Quantity int     `json:"quantity"`
    Price    float64 `json:"price"`
}

// OrderPlacedEvent is published after every per-unit payment of a checkout
// succeeded.  It carries enough for downstream consumers to log, notify or
// feed analytics without asking the catalog API.
type OrderPlacedEvent struct {
    TransactionID string      `json:"transaction_id"`
    Session       string      `json:"session"`
    Username      string      `json:"username,omitempty"`
    CustomerID    int         `json:"customer_id"`
    Lines         []OrderLine `json:"lines"`
    Units         int         `json:"units"`
    Total         float64     `json:"total"`
    PlacedAt      string      `json:"placed_at"`
}
