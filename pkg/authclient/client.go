// Package authclient wraps the registration, token and user endpoints.
package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"semicolon/pkg/apiclient"
	"semicolon/pkg/domain"
)

// Client calls the auth and user endpoints through the shared API client.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs an auth client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Register creates an account. The server wraps the user in a success
// envelope; its message is returned alongside.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.User, string, error) {
	return apiclient.Unwrap[domain.User](c.api.Post(ctx, "/auth/register", req))
}

// ErrNoAccessToken reports a token response without an access token.
var ErrNoAccessToken = errors.New("token response has no access_token")

// Login exchanges credentials for an access token. The token endpoint
// expects a form body, not JSON, and is always called without a bearer.
// The pair may come bare or inside a success envelope.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Token, error) {
	fields := apiclient.Params{}.Add("username", username).Add("password", password)
	res, err := c.api.PostForm(ctx, "/auth/token", fields, apiclient.RequestOptions{Anonymous: true})
	tok, _, err := apiclient.Unwrap[domain.Token](res, err)
	if err != nil {
		return domain.Token{}, err
	}
	tok.AccessToken = strings.TrimSpace(tok.AccessToken)
	if tok.AccessToken == "" {
		return domain.Token{}, &apiclient.DecodeError{Status: res.Status, ContentType: res.ContentType, Raw: res.Raw, Err: ErrNoAccessToken}
	}
	return tok, nil
}

// CurrentUser returns the user owning the session token.
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	user, _, err := apiclient.Unwrap[domain.User](c.api.Get(ctx, "/users/me", nil))
	return user, err
}

// CurrentUserWithToken returns the user owning token, which need not be
// stored yet. Used right after login, before the session exists.
func (c *Client) CurrentUserWithToken(ctx context.Context, token string) (domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, ErrNoAccessToken
	}
	user, _, err := apiclient.Unwrap[domain.User](c.api.Request(ctx, "/users/me", apiclient.RequestOptions{
		Method: http.MethodGet,
		Token:  token,
	}))
	return user, err
}

// User returns a public profile.
func (c *Client) User(ctx context.Context, id int64) (domain.User, error) {
	user, _, err := apiclient.Unwrap[domain.User](c.api.Get(ctx, fmt.Sprintf("/users/%d", id), nil))
	return user, err
}
