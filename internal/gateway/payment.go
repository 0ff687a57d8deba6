package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iliyamo/movie-storefront/internal/model"
)

// Pay records a single-unit sale.  On a non-2xx answer the server's JSON
// "message" becomes the error text verbatim when present.
func (c *Client) Pay(ctx context.Context, p model.Payment) (model.PaymentResult, error) {
	body, err := jsonBody(p)
	if err != nil {
		return model.PaymentResult{}, err
	}
	var out model.PaymentResult
	raw, err := c.do(ctx, request{
		op: "payment", method: http.MethodPost, path: "/payment",
		body: body, contentType: "application/json",
	}, &out)
	var he *HTTPError
	if errors.As(err, &he) {
		var payload model.PaymentResult
		if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
			he.Message = payload.Message
		}
	}
	return out, err
}
