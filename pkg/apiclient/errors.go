package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	// Body is the decoded response body, kept for inspection.
	Body any
	Raw  []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// DecodeError reports a response body that could not be decoded according to
// its declared content type, or into the requested Go type.
type DecodeError struct {
	Status      int
	ContentType string
	Raw         []byte
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d, %s): %v", e.Status, e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errorMessage picks the human-readable message of a failed response:
// detail.message, then a string detail, then message, then a generic text.
func errorMessage(body any, status int) string {
	if obj, ok := body.(map[string]any); ok {
		switch detail := obj["detail"].(type) {
		case map[string]any:
			if msg, ok := detail["message"].(string); ok && strings.TrimSpace(msg) != "" {
				return msg
			}
		case string:
			if strings.TrimSpace(detail) != "" {
				return detail
			}
		}
		if msg, ok := obj["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed: %d", status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message derives the text to show a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
