package util

import (
	"net/http"
	"strings"
	"time"
)

// WithRequestLog emits a structured log for each outbound HTTP request.
// It includes request_id so client logs can be correlated with the backend.
func WithRequestLog(service string, next http.RoundTripper) http.RoundTripper {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "unknown"
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		logger := LoggerFromContext(r.Context())
		if err != nil {
			logger.Warn(
				"http_client_request",
				"service", service,
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFromRequest(r),
				"err", err,
			)
			return nil, err
		}
		logger.Info(
			"http_client_request",
			"service", service,
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestIDFromRequest(r),
		)
		return resp, nil
	})
}
