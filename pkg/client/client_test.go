package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/git-notes/internal/testutil"
	"github.com/Sternrassler/git-notes/pkg/ratelimit"
	"golang.org/x/oauth2"
)

const testUserAgent = "git-notes-test/1.0"

type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

func newTestClient(t *testing.T, mock *testutil.MockGitHub, token string) *Client {
	t.Helper()

	cfg := DefaultConfig(testUserAgent)
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 5 * time.Second
	if token != "" {
		cfg.Tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(testUserAgent),
			expectError: false,
		},
		{
			name:        "empty base url defaults",
			config:      Config{UserAgent: testUserAgent},
			expectError: false,
		},
		{
			name:        "missing user agent",
			config:      DefaultConfig(""),
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name:        "unsupported scheme",
			config:      Config{UserAgent: testUserAgent, BaseURL: "ftp://example.com/"},
			expectError: true,
			errorMsg:    "base url must be http(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.BreakerState() != "closed" {
				t.Errorf("BreakerState() = %q, want closed", client.BreakerState())
			}
		})
	}
}

func TestGetJSON_AuthenticatedRequest(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	var gotQuery url.Values
	mock.SetHandler("GET /gists/public", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		for k, v := range testutil.RateLimitHeaders(5000, 4321, time.Now().Add(time.Hour)) {
			w.Header().Set(k, v)
		}
		w.Header().Set("Link", `<https://api.github.com/gists/public?page=2&per_page=10>; rel="next"`)
		w.Write([]byte(`[{"id":"abc"}]`))
	})

	c := newTestClient(t, mock, "secret-token")

	var out []struct {
		ID string `json:"id"`
	}
	header, err := c.GetJSON(context.Background(), "gists/public", url.Values{"page": {"1"}, "per_page": {"10"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if len(out) != 1 || out[0].ID != "abc" {
		t.Errorf("decoded %+v, want one gist abc", out)
	}
	if header.Get("Link") == "" {
		t.Error("response headers should be returned")
	}
	if gotQuery.Get("page") != "1" || gotQuery.Get("per_page") != "10" {
		t.Errorf("query = %v", gotQuery)
	}

	sent := mock.LastRequestHeader()
	if got := sent.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
	if got := sent.Get("Accept"); got != MediaType {
		t.Errorf("Accept = %q, want %q", got, MediaType)
	}
	if got := sent.Get("User-Agent"); got != testUserAgent {
		t.Errorf("User-Agent = %q, want %q", got, testUserAgent)
	}

	if got := c.RateLimit().Remaining; got != 4321 {
		t.Errorf("RateLimit().Remaining = %d, want 4321", got)
	}
}

func TestGetJSON_Anonymous(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetJSON("/gists/public", []any{})

	c := newTestClient(t, mock, "")

	var out []any
	if _, err := c.GetJSON(context.Background(), "/gists/public", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got := mock.LastRequestHeader().Get("Authorization"); got != "" {
		t.Errorf("anonymous request sent Authorization %q", got)
	}
}

func TestDo_TokenSource(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetJSON("/gists/public", []any{})

	newClient := func(ts oauth2.TokenSource) *Client {
		cfg := DefaultConfig(testUserAgent)
		cfg.BaseURL = mock.URL()
		cfg.Tokens = ts
		c, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		return c
	}
	ctx := context.Background()

	signedOut := newClient(tokenFunc(func() (*oauth2.Token, error) {
		return nil, fmt.Errorf("signed out: %w", ErrNoToken)
	}))
	var out []any
	if _, err := signedOut.GetJSON(ctx, "/gists/public", nil, &out); err != nil {
		t.Fatalf("GetJSON() without token error = %v", err)
	}
	if got := mock.LastRequestHeader().Get("Authorization"); got != "" {
		t.Errorf("signed-out request sent Authorization %q", got)
	}

	errBroken := errors.New("keyring locked")
	broken := newClient(tokenFunc(func() (*oauth2.Token, error) {
		return nil, errBroken
	}))
	before := mock.RequestCount()
	_, err := broken.GetJSON(ctx, "/gists/public", nil, &out)
	if !errors.Is(err, errBroken) {
		t.Fatalf("GetJSON() error = %v, want %v", err, errBroken)
	}
	if mock.RequestCount() != before {
		t.Error("request sent although the token source failed")
	}
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		response    testutil.MockResponse
		wantStatus  int
		wantClass   ErrorClass
		wantMessage string
	}{
		{
			name:        "not found",
			response:    testutil.NewErrorResponse(http.StatusNotFound, "Not Found"),
			wantStatus:  404,
			wantClass:   ErrorClassClient,
			wantMessage: "Not Found",
		},
		{
			name:        "unauthorized",
			response:    testutil.NewErrorResponse(http.StatusUnauthorized, "Bad credentials"),
			wantStatus:  401,
			wantClass:   ErrorClassClient,
			wantMessage: "Bad credentials",
		},
		{
			name:        "server error",
			response:    testutil.NewErrorResponse(http.StatusBadGateway, "Server Error"),
			wantStatus:  502,
			wantClass:   ErrorClassServer,
			wantMessage: "Server Error",
		},
		{
			name:        "rate limited",
			response:    testutil.NewRateLimitResponse(time.Now().Add(time.Hour)),
			wantStatus:  403,
			wantClass:   ErrorClassRateLimit,
			wantMessage: "API rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockGitHub()
			defer mock.Close()
			mock.SetResponse("/gists/1", tt.response)

			c := newTestClient(t, mock, "")
			_, err := c.GetJSON(context.Background(), "gists/1", nil, &struct{}{})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if apiErr.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, tt.wantClass)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestDo_BlocksWhileRateLimitExhausted(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse("/user", testutil.NewRateLimitResponse(time.Now().Add(time.Hour)))

	c := newTestClient(t, mock, "token")
	ctx := context.Background()

	if _, err := c.GetJSON(ctx, "user", nil, &struct{}{}); err == nil {
		t.Fatal("expected rate limit error")
	}

	_, err := c.GetJSON(ctx, "user", nil, &struct{}{})
	if !errors.Is(err, ratelimit.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if Class(err) != ErrorClassRateLimit {
		t.Errorf("Class() = %q, want rate_limit", Class(err))
	}
	if got := mock.RequestCount(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (second must be blocked locally)", got)
	}
}

func TestSendJSON_PostBody(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	var received map[string]any
	mock.SetHandler("POST /gists", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new"}`))
	})

	c := newTestClient(t, mock, "token")

	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{"description": "notes", "public": true}
	if _, err := c.SendJSON(context.Background(), http.MethodPost, "gists", body, &out); err != nil {
		t.Fatalf("SendJSON() error = %v", err)
	}
	if out.ID != "new" {
		t.Errorf("ID = %q, want new", out.ID)
	}
	if received["description"] != "notes" {
		t.Errorf("server received %v", received)
	}
}

func TestSendJSON_EmptyPut(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	var contentLength int64 = -1
	mock.SetHandler("PUT /gists/abc/star", func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mock, "token")
	if _, err := c.SendJSON(context.Background(), http.MethodPut, "gists/abc/star", nil, nil); err != nil {
		t.Fatalf("SendJSON() error = %v", err)
	}
	if contentLength != 0 {
		t.Errorf("ContentLength = %d, want 0", contentLength)
	}
}

func TestGetRaw(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse("/raw/abc/hello.go", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "package main\n",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	})

	c := newTestClient(t, mock, "token")
	ctx := context.Background()

	content, err := c.GetRaw(ctx, mock.URL()+"raw/abc/hello.go")
	if err != nil {
		t.Fatalf("GetRaw() error = %v", err)
	}
	if content != "package main\n" {
		t.Errorf("content = %q", content)
	}
	if got := mock.LastRequestHeader().Get("Authorization"); got != "" {
		t.Errorf("raw download sent Authorization %q", got)
	}

	_, err = c.GetRaw(ctx, mock.URL()+"raw/missing")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "failed to fetch file content") {
		t.Errorf("error = %v, want file content failure", err)
	}

	if _, err := c.GetRaw(ctx, "not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestDo_CircuitBreakerOpens(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse("/gists/public", testutil.NewErrorResponse(http.StatusInternalServerError, "boom"))

	c := newTestClient(t, mock, "")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.GetJSON(ctx, "gists/public", nil, nil); Class(err) != ErrorClassServer {
			t.Fatalf("request %d: expected server error, got %v", i, err)
		}
	}

	_, err := c.GetJSON(ctx, "gists/public", nil, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if c.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q, want open", c.BreakerState())
	}
	if got := mock.RequestCount(); got != 5 {
		t.Errorf("server saw %d requests, want 5", got)
	}
}
