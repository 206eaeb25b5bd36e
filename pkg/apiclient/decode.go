package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"semicolon/pkg/domain"
)

var errNotJSON = errors.New("response is not json")

// Decode unmarshals the raw JSON body into out. An empty body leaves out
// untouched.
func (r *Result) Decode(out any) error {
	if r == nil {
		return errors.New("nil result")
	}
	if len(bytes.TrimSpace(r.Raw)) == 0 {
		return nil
	}
	if !isJSON(r.ContentType) {
		return &DecodeError{Status: r.Status, ContentType: r.ContentType, Raw: r.Raw, Err: errNotJSON}
	}
	if err := json.Unmarshal(r.Raw, out); err != nil {
		return &DecodeError{Status: r.Status, ContentType: r.ContentType, Raw: r.Raw, Err: err}
	}
	return nil
}

// As decodes a request outcome into T, passing request errors through.
//
//	q, err := apiclient.As[domain.Question](c.Get(ctx, "/questions/1", nil))
func As[T any](res *Result, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := res.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// Unwrap decodes T from either a bare body or a {success, data, message}
// envelope. The envelope is recognised by a boolean "success" key. An
// envelope reporting success=false becomes an *APIError with the response
// status. The returned string is the envelope message, if any.
func Unwrap[T any](res *Result, err error) (T, string, error) {
	var out T
	if err != nil {
		return out, "", err
	}
	obj, ok := res.Data.(map[string]any)
	if !ok {
		return out, "", res.Decode(&out)
	}
	if _, enveloped := obj["success"].(bool); !enveloped {
		return out, "", res.Decode(&out)
	}
	var env domain.Envelope[T]
	if err := res.Decode(&env); err != nil {
		return out, "", err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("request failed: %d", res.Status)
		}
		return out, "", &APIError{Status: res.Status, Message: msg, Body: res.Data, Raw: res.Raw}
	}
	return env.Data, env.Message, nil
}
