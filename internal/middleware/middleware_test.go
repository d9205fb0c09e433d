package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIdentity_SetsHeaderValue(t *testing.T) {
	var got string
	handler := ClientIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client-ID", "backend-service")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "backend-service" {
		t.Errorf("expected 'backend-service', got %q", got)
	}
}

func TestClientIdentity_DefaultsToAnonymous(t *testing.T) {
	var got string
	handler := ClientIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIDFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != "anonymous" {
		t.Errorf("expected 'anonymous', got %q", got)
	}
}

func TestClientIDFromContext_MissingIsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ClientIDFromContext(req.Context()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	handler := ClientIdentity()(rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	send := func(clientID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client-ID", clientID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		if code := send("client-a"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := send("client-a"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", code)
	}

	// A different client has its own budget.
	if code := send("client-b"); code != http.StatusOK {
		t.Errorf("other client: expected 200, got %d", code)
	}
}
