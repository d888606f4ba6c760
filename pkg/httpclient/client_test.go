// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	config := Config{
		Timeout:   10 * time.Second,
		UserAgent: "subscriber-sync/test",
	}

	client := NewClient(config)

	if client.config.Timeout != config.Timeout {
		t.Errorf("Expected timeout %v, got %v", config.Timeout, client.config.Timeout)
	}
	if client.httpClient.Timeout != config.Timeout {
		t.Errorf("Expected HTTP client timeout %v, got %v", config.Timeout, client.httpClient.Timeout)
	}
	if client.httpClient.Transport == nil {
		t.Error("Expected instrumented transport to be set")
	}
}

func TestClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.Header.Get("Custom-Header") != "custom-value" {
			t.Errorf("Expected custom header to be forwarded")
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Expected default Accept header")
		}

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"message": "success"}`))
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})
	ctx := context.Background()

	headers := map[string]string{
		"Custom-Header": "custom-value",
	}

	resp, err := client.Request(ctx, "GET", server.URL, nil, headers)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", resp.StatusCode)
	}

	expectedBody := `{"message": "success"}`
	if string(resp.Body) != expectedBody {
		t.Errorf("Expected body '%s', got '%s'", expectedBody, string(resp.Body))
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte(`{"error": "not found"}`))
		if err != nil {
			t.Errorf("Expected no error writing response, got %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())
	ctx := context.Background()

	resp, err := client.Request(ctx, "GET", server.URL, nil, nil)

	// Error contract: non-2xx responses return *StatusError together with the response
	require.Error(t, err, "Expected error for 404 status")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr, "Expected *StatusError for non-2xx response, got %T", err)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "not found")

	require.NotNil(t, resp, "Expected response to be returned with the status error")
	assert.Equal(t, `{"error": "not found"}`, string(resp.Body))
}

func TestClient_ServerError_NotRetried(t *testing.T) {
	callCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "try later"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Timeout: 5 * time.Second})

	_, err := client.Request(context.Background(), "GET", server.URL, nil, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, 1, callCount, "transient failures are surfaced, not retried in-process")
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		body, _ := io.ReadAll(r.Body)
		expectedBody := `{"test": "data"}`
		if string(body) != expectedBody {
			t.Errorf("Expected body '%s', got '%s'", expectedBody, string(body))
		}

		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte(`{"created": true}`))
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())
	ctx := context.Background()

	body := strings.NewReader(`{"test": "data"}`)
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	resp, err := client.Request(ctx, "POST", server.URL, body, headers)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status code 201, got %d", resp.StatusCode)
	}
}

func TestClient_UserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "subscriber-sync/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(Config{Timeout: time.Second, UserAgent: "subscriber-sync/1.0"})
	resp, err := client.Request(context.Background(), http.MethodDelete, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", config.Timeout)
	}
	if config.Transport != nil {
		t.Error("Expected default transport to be nil")
	}
}

// mockRoundTripper for testing RoundTripper functionality
type mockRoundTripper struct {
	called     bool
	headerSet  string
	nextCalled bool
}

func (m *mockRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	m.called = true

	// Add a test header to verify RoundTripper was executed
	req.Header.Set("X-Mock-RoundTripper", "executed")
	m.headerSet = req.Header.Get("X-Mock-RoundTripper")

	resp, err := next(req)
	if err == nil {
		m.nextCalled = true
	}

	return resp, err
}

// authRoundTripper simulates API key injection as BasicAuth
type authRoundTripper struct {
	username string
	password string
	called   bool
}

func (a *authRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	a.called = true

	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}

	return next(req)
}

func TestClient_AddRoundTripper(t *testing.T) {
	client := NewClient(DefaultConfig())

	mock := &mockRoundTripper{}
	client.AddRoundTripper(mock)

	if len(client.roundTrippers) != 1 {
		t.Errorf("Expected 1 RoundTripper, got %d", len(client.roundTrippers))
	}
}

func TestClient_RoundTripper_BasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()

		if !ok {
			t.Error("Expected BasicAuth to be present")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		// API key sent as password with an arbitrary user name
		if username != "anystring" || password != "key-us21" {
			t.Errorf("Expected anystring:key-us21, got '%s':'%s'", username, password)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "authenticated"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())

	auth := &authRoundTripper{username: "anystring", password: "key-us21"}
	client.AddRoundTripper(auth)

	resp, err := client.Request(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 OK, got %d", resp.StatusCode)
	}

	if !auth.called {
		t.Error("Expected auth RoundTripper to be called")
	}
}

func TestClient_RoundTripper_MultipleMiddleware(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Mock-RoundTripper") != "executed" {
			t.Errorf("Expected mock RoundTripper header")
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			t.Error("Expected BasicAuth to be set")
		}
		if username != "testuser" || password != "testpass" {
			t.Errorf("Expected BasicAuth testuser:testpass, got %s:%s", username, password)
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"authenticated": true}`))
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())

	mock := &mockRoundTripper{}
	auth := &authRoundTripper{username: "testuser", password: "testpass"}

	client.AddRoundTripper(mock)
	client.AddRoundTripper(auth)

	_, err := client.Request(context.Background(), "GET", server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !mock.called || !mock.nextCalled {
		t.Error("Expected mock RoundTripper to be called and to reach the next handler")
	}

	if !auth.called {
		t.Error("Expected auth RoundTripper to be called")
	}
}
