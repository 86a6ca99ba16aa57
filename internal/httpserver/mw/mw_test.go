package mw

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"marks.example.com", "marks.example.com", true},
		{"marks.example.com:8443", "marks.example.com", true},
		{"MARKS.example.com", "marks.example.com", true},
		{"a.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"localhost:8080", "localhost:8080", true},
		{"localhost:9090", "localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"~"+tt.pattern, func(t *testing.T) {
			if got := matchHost(tt.host, tt.pattern); got != tt.want {
				t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2})(okHandler())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		last = rec
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After on 429")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client got %d, buckets must be per IP", rec.Code)
	}
}

func TestKeyedLimiterSweepsIdleVisitors(t *testing.T) {
	l := newKeyedLimiter(RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()

	l.allow("a", now)
	l.allow("b", now)
	l.allow("b", now.Add(2*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["a"]; ok {
		t.Error("idle visitor a was not swept")
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Error("active visitor b was swept")
	}
}

type staticVerifier map[string]string

func (s staticVerifier) Verify(token string) (string, error) {
	if owner, ok := s[token]; ok {
		return owner, nil
	}
	return "", errors.New("bad token")
}

func TestAuthenticate(t *testing.T) {
	var seen string
	h := Authenticate(staticVerifier{"good": "alice"}, logger.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = OwnerFrom(r.Context())
		}))

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantSeen string
	}{
		{"bearer", "Bearer good", "", http.StatusOK, "alice"},
		{"lowercase scheme", "bearer good", "", http.StatusOK, "alice"},
		{"query token", "", "good", http.StatusOK, "alice"},
		{"basic scheme", "Basic good", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"missing", "", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			target := "/api/bookmarks"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if seen != tt.wantSeen {
				t.Errorf("owner = %q, want %q", seen, tt.wantSeen)
			}
		})
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(okHandler())

	for addr, want := range map[string]int{
		"10.1.1.1:1000":    http.StatusOK,
		"192.168.0.1:1000": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", addr, rec.Code, want)
		}
	}
}
