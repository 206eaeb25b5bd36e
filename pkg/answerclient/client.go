// Package answerclient wraps the /answers endpoints.
package answerclient

import (
	"context"
	"fmt"

	"semicolon/pkg/apiclient"
	"semicolon/pkg/domain"
)

// Client calls the answer endpoints through the shared API client.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs an answer client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Create(ctx context.Context, req domain.AnswerCreate) (domain.Answer, error) {
	a, _, err := apiclient.Unwrap[domain.Answer](c.api.Post(ctx, "/answers/", req))
	return a, err
}

func (c *Client) Update(ctx context.Context, id int64, req domain.AnswerUpdate) (domain.Answer, error) {
	a, _, err := apiclient.Unwrap[domain.Answer](c.api.Put(ctx, path(id), req))
	return a, err
}

// Delete removes an answer. The server's confirmation message is returned.
func (c *Client) Delete(ctx context.Context, id int64) (string, error) {
	res, err := c.api.Delete(ctx, path(id))
	if err != nil {
		return "", err
	}
	if obj, ok := res.Data.(map[string]any); ok {
		msg, _ := obj["message"].(string)
		return msg, nil
	}
	return "", nil
}

// Vote casts an up or down vote on answer id.
func (c *Client) Vote(ctx context.Context, id int64, v domain.Vote) (domain.Answer, error) {
	if !v.Valid() {
		return domain.Answer{}, domain.ErrInvalidVote
	}
	a, _, err := apiclient.Unwrap[domain.Answer](c.api.Post(ctx, path(id)+"/vote", domain.VoteRequest{Vote: v}))
	return a, err
}

// Accept marks answer id as the accepted one for its question.
func (c *Client) Accept(ctx context.Context, id int64) (domain.Answer, error) {
	a, _, err := apiclient.Unwrap[domain.Answer](c.api.Post(ctx, path(id)+"/accept", struct{}{}))
	return a, err
}

func path(id int64) string {
	return fmt.Sprintf("/answers/%d", id)
}
