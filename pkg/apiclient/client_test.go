package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"semicolon/pkg/domain"
)

type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Auth        string
	RequestID   string
	Body        string
}

func newRecordingServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Auth:        r.Header.Get("Authorization"),
			RequestID:   r.Header.Get("X-Request-Id"),
			Body:        string(data),
		})
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestRequestAttachesBearerOnlyWhenTokenPresent(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, "application/json", `{}`)
	token := ""
	c := New(srv.URL, WithTokenSource(TokenFunc(func() string { return token })))

	if _, err := c.Get(context.Background(), "/users/me", nil); err != nil {
		t.Fatalf("anonymous get: %v", err)
	}
	token = "abc"
	if _, err := c.Get(context.Background(), "/users/me", nil); err != nil {
		t.Fatalf("authenticated get: %v", err)
	}

	if got := (*seen)[0].Auth; got != "" {
		t.Fatalf("anonymous request sent Authorization %q", got)
	}
	if got := (*seen)[1].Auth; got != "Bearer abc" {
		t.Fatalf("Authorization = %q, want %q", got, "Bearer abc")
	}
	if (*seen)[1].RequestID == "" {
		t.Fatal("expected X-Request-Id on outbound request")
	}
}

func TestRequestTokenOverrideAndAnonymous(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, "application/json", `{}`)
	c := New(srv.URL, WithTokenSource(TokenFunc(func() string { return "stored" })))

	if _, err := c.Request(context.Background(), "/users/me", RequestOptions{Token: "explicit"}); err != nil {
		t.Fatalf("override request: %v", err)
	}
	if _, err := c.Request(context.Background(), "/auth/token", RequestOptions{Anonymous: true}); err != nil {
		t.Fatalf("anonymous request: %v", err)
	}
	if got := (*seen)[0].Auth; got != "Bearer explicit" {
		t.Fatalf("override Authorization = %q", got)
	}
	if got := (*seen)[1].Auth; got != "" {
		t.Fatalf("anonymous Authorization = %q", got)
	}
}

func TestRequestDefaultsJSONContentTypeUnlessOverridden(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, "application/json", `{"ok":true}`)
	c := New(srv.URL)

	if _, err := c.Post(context.Background(), "/questions/", domain.QuestionCreate{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := c.PostForm(context.Background(), "/auth/token", Params{{"username", "alice"}, {"password", "secret"}}, RequestOptions{}); err != nil {
		t.Fatalf("post form: %v", err)
	}

	if got := (*seen)[0].ContentType; got != "application/json" {
		t.Fatalf("json content type = %q", got)
	}
	if got := (*seen)[0].Body; got != `{"title":"t","content":"c","tags":null}` {
		t.Fatalf("json body = %s", got)
	}
	if got := (*seen)[1].ContentType; got != "application/x-www-form-urlencoded" {
		t.Fatalf("form content type = %q", got)
	}
	if got := (*seen)[1].Body; got != "username=alice&password=secret" {
		t.Fatalf("form body = %q", got)
	}
}

func TestRequestStructuredDetailMessageBecomesAPIError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusNotFound, "application/json", `{"detail":{"message":"not found"}}`)
	c := New(srv.URL)

	_, err := c.Get(context.Background(), "/questions/9", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.Message != "not found" || apiErr.Status != http.StatusNotFound {
		t.Fatalf("unexpected api error: status=%d message=%q", apiErr.Status, apiErr.Message)
	}
	body, ok := apiErr.Body.(map[string]any)
	if !ok || body["detail"] == nil {
		t.Fatalf("expected decoded body attached, got %#v", apiErr.Body)
	}
	if StatusCode(err) != http.StatusNotFound || Message(err) != "not found" {
		t.Fatalf("helpers disagree: %d %q", StatusCode(err), Message(err))
	}
}

func TestRequestErrorMessagePriority(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"detail message wins", "application/json", `{"detail":{"message":"a"},"message":"b"}`, "a"},
		{"string detail", "application/json", `{"detail":"Question not found"}`, "Question not found"},
		{"top-level message", "application/json", `{"error":"X","message":"b"}`, "b"},
		{"detail without message falls through", "application/json", `{"detail":{"error":"X"},"message":"b"}`, "b"},
		{"generic json", "application/json", `{"error":"X"}`, "request failed: 400"},
		{"generic text", "text/plain", `boom`, "request failed: 400"},
	}
	for _, tc := range cases {
		srv, _ := newRecordingServer(t, http.StatusBadRequest, tc.contentType, tc.body)
		_, err := New(srv.URL).Get(context.Background(), "/x", nil)
		if got := Message(err); got != tc.want {
			t.Fatalf("%s: message = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRequestReturnsTextForNonJSONResponse(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, "text/plain; charset=utf-8", "ok")
	res, err := New(srv.URL).Get(context.Background(), "/health", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Data != "ok" {
		t.Fatalf("data = %#v, want \"ok\"", res.Data)
	}
	var v map[string]any
	var derr *DecodeError
	if err := res.Decode(&v); !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError decoding text into a map, got %v", err)
	}
}

func TestRequestMalformedJSONIsDecodeError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, "application/json", `{"id":`)
	_, err := New(srv.URL).Get(context.Background(), "/questions/1", nil)
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DecodeError, got %T %v", err, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatal("decode failure must not be an APIError")
	}
}

func TestRequestEmptyJSONBodyIsNil(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, "application/json", "")
	res, err := New(srv.URL).Delete(context.Background(), "/questions/1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Data != nil {
		t.Fatalf("data = %#v, want nil", res.Data)
	}
}

func TestRequestTransportErrorPropagatesUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base).Get(context.Background(), "/questions/", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("expected *url.Error, got %T", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatal("transport error must not be an APIError")
	}
}

func TestGetEncodesParamsInOrder(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, "application/json", `[]`)
	c := New(srv.URL + "/")

	params := Params{}.Add("skip", 20).Add("limit", 10).Add("tag", "go lang")
	if _, err := c.Get(context.Background(), "/questions/", params); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := c.Get(context.Background(), "/questions/", nil); err != nil {
		t.Fatalf("get without params: %v", err)
	}
	if got := (*seen)[0].RawQuery; got != "skip=20&limit=10&tag=go+lang" {
		t.Fatalf("query = %q", got)
	}
	if got := (*seen)[1].RawQuery; got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}
	if got := (*seen)[0].Path; got != "/questions/" {
		t.Fatalf("path = %q", got)
	}
}

func TestAsDecodesTypedResult(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, "application/json", `{"id":7,"title":"Why?","content":"Because"}`)
	c := New(srv.URL)
	q, err := As[domain.Question](c.Get(context.Background(), "/questions/7", nil))
	if err != nil {
		t.Fatalf("as: %v", err)
	}
	if q.ID != 7 || q.Title != "Why?" {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestUnwrapHandlesBareAndEnvelopedBodies(t *testing.T) {
	bare, _ := newRecordingServer(t, http.StatusOK, "application/json", `{"id":1,"username":"alice"}`)
	wrapped, _ := newRecordingServer(t, http.StatusOK, "application/json", `{"success":true,"data":{"id":2,"username":"bob"},"message":"done"}`)
	failed, _ := newRecordingServer(t, http.StatusOK, "application/json", `{"success":false,"error":"NOPE","message":"rejected"}`)

	u, msg, err := Unwrap[domain.User](New(bare.URL).Get(context.Background(), "/users/me", nil))
	if err != nil || u.ID != 1 || msg != "" {
		t.Fatalf("bare: user=%+v msg=%q err=%v", u, msg, err)
	}
	u, msg, err = Unwrap[domain.User](New(wrapped.URL).Get(context.Background(), "/users/me", nil))
	if err != nil || u.Username != "bob" || msg != "done" {
		t.Fatalf("wrapped: user=%+v msg=%q err=%v", u, msg, err)
	}
	_, _, err = Unwrap[domain.User](New(failed.URL).Get(context.Background(), "/users/me", nil))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "rejected" || apiErr.Status != http.StatusOK {
		t.Fatalf("failed envelope: %v", err)
	}
}

func TestCustomHeaderOverridesContentType(t *testing.T) {
	srv, seen := newRecordingServer(t, http.StatusOK, "application/json", `{}`)
	header := http.Header{}
	header.Set("Content-Type", "text/csv")
	_, err := New(srv.URL).Request(context.Background(), "/import", RequestOptions{
		Method: http.MethodPost,
		Header: header,
		Body:   strings.NewReader("a,b"),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := (*seen)[0].ContentType; got != "text/csv" {
		t.Fatalf("content type = %q", got)
	}
}
