package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("request beyond burst allowed")
	}
	if !rl.Allow("b") {
		t.Error("separate key shares a bucket")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	rl.idle = time.Millisecond

	rl.Allow("a")
	time.Sleep(5 * time.Millisecond)
	rl.Allow("b")
	rl.Cleanup()

	if got := rl.size(); got != 1 {
		t.Errorf("size = %d, want 1", got)
	}
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := RateLimit(rl, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:1000"); code != http.StatusOK {
		t.Errorf("first request = %d, want 200", code)
	}
	if code := send("10.0.0.1:2000"); code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("other client = %d, want 200", code)
	}
}

func TestRateLimit_KeysByEditor(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := RateLimit(rl, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(editor string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), editorKey, editor))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("Alice"); code != http.StatusOK {
		t.Errorf("Alice = %d, want 200", code)
	}
	if code := send("Bob"); code != http.StatusOK {
		t.Errorf("Bob from same address = %d, want 200", code)
	}
	if code := send("Alice"); code != http.StatusTooManyRequests {
		t.Errorf("Alice again = %d, want 429", code)
	}
}

func TestClientIP(t *testing.T) {
	trusted := parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1", " "})

	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:443", "", "203.0.113.5"},
		{"untrusted peer ignores xff", "203.0.113.5:443", "198.51.100.7", "203.0.113.5"},
		{"trusted cidr", "10.1.2.3:443", "198.51.100.7, 10.1.2.3", "198.51.100.7"},
		{"trusted single ip", "192.168.1.1:443", "198.51.100.8", "198.51.100.8"},
		{"trusted without header", "10.1.2.3:443", "", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req, trusted); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
