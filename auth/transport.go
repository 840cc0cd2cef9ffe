package auth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// AuthorizedHTTPClient returns an HTTP client that sends the stored access
// token as a bearer credential on every request. The token is captured when
// this is called; a later logout does not affect the returned client.
func (c *Client) AuthorizedHTTPClient(ctx context.Context) (*http.Client, error) {
	token := c.GetToken()
	if token == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})), nil
}

// NewAPIRequest builds a request for path resolved against the API base URL.
func (c *Client) NewAPIRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.GetAPIBaseURL(), "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "invalid API base URL")
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid API path")
	}
	return http.NewRequestWithContext(ctx, strings.ToUpper(method), base.ResolveReference(ref).String(), body)
}
