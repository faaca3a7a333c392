package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options: %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options: %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("missing CSP")
	}
}

func TestHeadToGet(t *testing.T) {
	var sawMethod string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawMethod = r.Method
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/", nil))
	if sawMethod != http.MethodGet {
		t.Fatalf("method seen by handler: %q", sawMethod)
	}
}

func TestMaxBody(t *testing.T) {
	h := MaxBody(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized POST: status %d", rec.Code)
	}

	// GET bodies are not capped.
	req = httptest.NewRequest(http.MethodGet, "/", strings.NewReader(strings.Repeat("x", 100)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: status %d", rec.Code)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(map[string]Rule{
		"POST /overlay/submit": {MaxRequests: 2, WindowSeconds: 60},
	})

	if !rl.allow("10.0.0.1", "POST /overlay/submit") {
		t.Fatal("first request must pass")
	}
	if !rl.allow("10.0.0.1", "POST /overlay/submit") {
		t.Fatal("second request must pass")
	}
	if rl.allow("10.0.0.1", "POST /overlay/submit") {
		t.Fatal("third request must be blocked")
	}
	// Another IP has its own bucket.
	if !rl.allow("10.0.0.2", "POST /overlay/submit") {
		t.Fatal("other IP must pass")
	}
	// Unruled endpoint is unlimited.
	for i := 0; i < 10; i++ {
		if !rl.allow("10.0.0.1", "GET /overlay/state") {
			t.Fatal("unruled endpoint must pass")
		}
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(map[string]Rule{
		"GET /limited": {MaxRequests: 1, WindowSeconds: 60},
	})
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: status %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func TestRateLimiter_ExcludedPrefix(t *testing.T) {
	rl := NewRateLimiter(map[string]Rule{
		"GET /static/app.js": {MaxRequests: 1, WindowSeconds: 60},
	}, "/static/")
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("excluded prefix blocked on attempt %d", i+1)
		}
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "203.0.113.5", "10.0.0.1:80", "203.0.113.5"},
		{"forwarded chain", "203.0.113.5, 70.41.3.18", "10.0.0.1:80", "203.0.113.5"},
		{"remote addr", "", "10.0.0.1:443", "10.0.0.1"},
		{"remote addr no port", "", "10.0.0.1", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ExtractIP(req); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
