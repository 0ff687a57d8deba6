package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/movie-storefront/internal/model"
)

type addToCartReq struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type updateQuantityReq struct {
	MovieID string               `json:"movieId"`
	Action  model.QuantityAction `json:"action"`
}

// Cart reads the authoritative cart.
func (c *Client) Cart(ctx context.Context) (model.Cart, error) {
	var out model.Cart
	_, err := c.do(ctx, request{op: "get cart items", method: http.MethodGet, path: "/shopping_cart"}, &out)
	return out, err
}

// AddToCart adds quantity units of a movie.  A quantity below one is sent
// as one.
func (c *Client) AddToCart(ctx context.Context, id, title string, quantity int) (model.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	body, err := jsonBody(addToCartReq{ID: id, Title: title, Quantity: quantity})
	if err != nil {
		return model.Cart{}, err
	}
	var out model.Cart
	_, err = c.do(ctx, request{
		op: "add to cart", method: http.MethodPost, path: "/shopping_cart",
		body: body, contentType: "application/json",
	}, &out)
	return out, err
}

// UpdateCartQuantity increases or decreases one item's quantity by one.
func (c *Client) UpdateCartQuantity(ctx context.Context, movieID string, action model.QuantityAction) (model.Cart, error) {
	body, err := jsonBody(updateQuantityReq{MovieID: movieID, Action: action})
	if err != nil {
		return model.Cart{}, err
	}
	var out model.Cart
	_, err = c.do(ctx, request{
		op: "update cart quantity", method: http.MethodPut, path: "/shopping_cart",
		body: body, contentType: "application/json",
	}, &out)
	return out, err
}

// RemoveFromCart drops an item regardless of its quantity.
func (c *Client) RemoveFromCart(ctx context.Context, movieID string) (model.Cart, error) {
	q := url.Values{}
	q.Set("movieId", movieID)
	var out model.Cart
	_, err := c.do(ctx, request{op: "remove from cart", method: http.MethodDelete, path: "/shopping_cart", query: q}, &out)
	return out, err
}
