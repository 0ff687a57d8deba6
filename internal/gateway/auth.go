package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/movie-storefront/internal/model"
)

// Login posts the credentials form-encoded.  A 2xx answer with status
// "fail" is not an error; callers inspect LoginResult.Succeeded.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var out model.LoginResult
	_, err := c.do(ctx, request{
		op: "login", method: http.MethodPost, path: "/login",
		body: strings.NewReader(form.Encode()), contentType: "application/x-www-form-urlencoded",
	}, &out)
	return out, err
}
