package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLocal_EnsureAnonymous(t *testing.T) {
	s, err := Local{}.EnsureAnonymous(context.Background())
	if err != nil {
		t.Fatalf("EnsureAnonymous: %v", err)
	}
	if !s.Valid() {
		t.Errorf("local session not valid: %+v", s)
	}
}

func TestClient_EnsureAnonymousCachesSession(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if r.URL.Path != "/v1/accounts:signUp" {
			t.Errorf("path = %q, want /v1/accounts:signUp", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"localId":   "anon-1",
			"idToken":   "tok-1",
			"expiresIn": int64(3600),
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", zap.NewNop())
	ctx := context.Background()

	first, err := c.EnsureAnonymous(ctx)
	if err != nil {
		t.Fatalf("first EnsureAnonymous: %v", err)
	}
	if first.UID != "anon-1" || first.Token != "tok-1" {
		t.Errorf("session = %+v, want anon-1/tok-1", first)
	}

	// Second call must reuse the cached session.
	second, err := c.EnsureAnonymous(ctx)
	if err != nil {
		t.Fatalf("second EnsureAnonymous: %v", err)
	}
	if second != first {
		t.Errorf("second session %+v differs from first %+v", second, first)
	}
	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Errorf("sign-in calls = %d, want 1", n)
	}

	// Clearing forces a fresh sign-in.
	c.Clear()
	if _, err := c.EnsureAnonymous(ctx); err != nil {
		t.Fatalf("EnsureAnonymous after clear: %v", err)
	}
	if n := atomic.LoadInt64(&calls); n != 2 {
		t.Errorf("sign-in calls after clear = %d, want 2", n)
	}
}

func TestClient_EnsureAnonymousErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-key", zap.NewNop())
	if _, err := c.EnsureAnonymous(context.Background()); err == nil {
		t.Fatal("expected error on 403 response")
	}
}

func TestSessionValid(t *testing.T) {
	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"live session", Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}, true},
		{"expired", Session{Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}, false},
		{"no token", Session{ExpiresAt: time.Now().Add(time.Hour)}, false},
		{"zero value", Session{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
