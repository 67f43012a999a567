package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// memCreds is an in-memory Credentials for gateway tests.
type memCreds struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (c *memCreds) AccessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access, nil
}

func (c *memCreds) RefreshToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh, nil
}

func (c *memCreds) SetAccessToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access = token
	return nil
}

func newTestClient(t *testing.T, baseURL string, creds Credentials) *Client {
	t.Helper()
	c, err := New(baseURL, creds)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestDoResolvesRelativePaths(t *testing.T) {
	t.Parallel()
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 1})
	}))
	defer ts.Close()

	// Base URL carries a path prefix without a trailing slash, the way
	// users will write it in config.
	c := newTestClient(t, ts.URL+"/api", nil)
	if err := c.Do(context.Background(), http.MethodGet, "patients", nil, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotPath != "/api/patients" {
		t.Fatalf("path resolved to %q, want /api/patients", gotPath)
	}
}

func TestDoSetsHeaders(t *testing.T) {
	t.Parallel()
	var auth, reqID, contentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, &memCreds{access: "tok-123"})
	body := map[string]string{"k": "v"}
	if err := c.Do(context.Background(), http.MethodPost, "x", body, nil); err != nil {
		t.Fatalf("do: %v", err)
	}
	if auth != "Bearer tok-123" {
		t.Fatalf("bearer not injected, got %q", auth)
	}
	if reqID == "" {
		t.Fatal("request id header missing")
	}
	if contentType != "application/json" {
		t.Fatalf("content type %q", contentType)
	}
}

func TestDoCategorizesStatusCodes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusNotFound, KindNotFound},
		{http.StatusInternalServerError, KindUnknown},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		}))
		c := newTestClient(t, ts.URL, nil)
		err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)
		ts.Close()

		if KindOf(err) != tc.kind {
			t.Errorf("status %d categorized as %s, want %s", tc.status, KindOf(err), tc.kind)
		}
		var ae *Error
		if !errors.As(err, &ae) || ae.Message != "nope" {
			t.Errorf("status %d lost the server message: %v", tc.status, err)
		}
	}
}

func TestDoNetworkFailure(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // nothing listening anymore

	c := newTestClient(t, ts.URL, nil)
	err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected a network error, got %v", err)
	}
}

func TestDoRefreshesOnUnauthorizedOnce(t *testing.T) {
	t.Parallel()
	var calls, refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		if r.Header.Get("Authorization") != "Bearer ref-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	})
	mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "expired"})
			return
		}
		_ = json.NewEncoder(w).Encode([]int{})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	creds := &memCreds{access: "stale", refresh: "ref-token"}
	c := newTestClient(t, ts.URL, creds)

	var out []int
	if err := c.Do(context.Background(), http.MethodGet, "patients", nil, &out); err != nil {
		t.Fatalf("expected silent recovery, got %v", err)
	}
	if calls != 2 || refreshes != 1 {
		t.Fatalf("expected one retry after one refresh, got calls=%d refreshes=%d", calls, refreshes)
	}
	if tok, _ := creds.AccessToken(); tok != "fresh" {
		t.Fatalf("rotated token not stored, got %q", tok)
	}
}

func TestDoSurfacesUnauthorizedWhenRefreshFails(t *testing.T) {
	t.Parallel()
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "expired"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newTestClient(t, ts.URL, &memCreds{access: "stale", refresh: "dead"})
	err := c.Do(context.Background(), http.MethodGet, "patients", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized to surface, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("failed refresh must not retry the call, got %d calls", calls)
	}
}

func TestDoWithoutCredentialsDoesNotRefresh(t *testing.T) {
	t.Parallel()
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, nil)
	err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("anonymous client must not retry, got %d calls", calls)
	}
}
