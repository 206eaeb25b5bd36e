// Package questionclient wraps the /questions endpoints.
package questionclient

import (
	"context"
	"fmt"

	"semicolon/pkg/apiclient"
	"semicolon/pkg/domain"
)

// Client calls the question endpoints through the shared API client.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs a question client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// ListParams filters the question list. Zero values are omitted.
type ListParams struct {
	Skip  int
	Limit int
	Tag   string
}

func (p ListParams) params() apiclient.Params {
	var out apiclient.Params
	if p.Skip > 0 {
		out = out.Add("skip", p.Skip)
	}
	if p.Limit > 0 {
		out = out.Add("limit", p.Limit)
	}
	if p.Tag != "" {
		out = out.Add("tag", p.Tag)
	}
	return out
}

func (c *Client) List(ctx context.Context, p ListParams) ([]domain.Question, error) {
	items, _, err := apiclient.Unwrap[[]domain.Question](c.api.Get(ctx, "/questions/", p.params()))
	if items == nil && err == nil {
		items = []domain.Question{}
	}
	return items, err
}

func (c *Client) Get(ctx context.Context, id int64) (domain.Question, error) {
	q, _, err := apiclient.Unwrap[domain.Question](c.api.Get(ctx, path(id), nil))
	return q, err
}

func (c *Client) Create(ctx context.Context, req domain.QuestionCreate) (domain.Question, error) {
	q, _, err := apiclient.Unwrap[domain.Question](c.api.Post(ctx, "/questions/", req))
	return q, err
}

// Update sends only the fields set in req.
func (c *Client) Update(ctx context.Context, id int64, req domain.QuestionUpdate) (domain.Question, error) {
	q, _, err := apiclient.Unwrap[domain.Question](c.api.Put(ctx, path(id), req))
	return q, err
}

// Delete removes a question. The server's confirmation message, if any, is
// returned.
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

// Answers lists the answers posted to question id.
func (c *Client) Answers(ctx context.Context, id int64) ([]domain.Answer, error) {
	items, _, err := apiclient.Unwrap[[]domain.Answer](c.api.Get(ctx, path(id)+"/answers", nil))
	if items == nil && err == nil {
		items = []domain.Answer{}
	}
	return items, err
}

// Vote casts an up or down vote and returns the question as the server
// reports it afterwards. An empty response yields a zero Question.
func (c *Client) Vote(ctx context.Context, id int64, v domain.Vote) (domain.Question, error) {
	if !v.Valid() {
		return domain.Question{}, domain.ErrInvalidVote
	}
	q, _, err := apiclient.Unwrap[domain.Question](c.api.Post(ctx, path(id)+"/vote", domain.VoteRequest{Vote: v}))
	return q, err
}

func path(id int64) string {
	return fmt.Sprintf("/questions/%d", id)
}
