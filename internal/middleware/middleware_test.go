package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("test")
	tests := []struct {
		name   string
		token  string
		bypass bool
		header string
		want   bool
	}{
		{"valid", "secret", false, "Bearer secret", true},
		{"wrong token", "secret", false, "Bearer nope", false},
		{"missing header", "secret", false, "", false},
		{"not bearer", "secret", false, "Basic secret", false},
		{"no token configured", "", false, "Bearer ", false},
		{"bypass", "", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Auth = config.AuthConfig{Token: tt.token, NoAuthBypass: tt.bypass}
			Init(cfg)
			if got := IsValidBearerToken(tt.header, log); got != tt.want {
				t.Errorf("IsValidBearerToken(%q) = %v; want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Token = "secret"
	cfg.Server.RateLimitPerSecond = 1
	cfg.Server.RateLimitBurst = 2
	Init(cfg)

	var seenTrace string
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {
		seenTrace, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusOK)
	})

	send := func(auth, trace string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		if trace != "" {
			req.Header.Set("X-Trace-Id", trace)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	if rec := send("", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", rec.Code)
	}

	rec := send("Bearer secret", "trace-1")
	if rec.Code != http.StatusOK || seenTrace != "trace-1" || rec.Header().Get("X-Trace-Id") != "trace-1" {
		t.Errorf("Expected the trace to be propagated, got %d %q", rec.Code, seenTrace)
	}

	rec = send("Bearer secret", "")
	if rec.Code != http.StatusOK || seenTrace == "" {
		t.Errorf("Expected a generated trace id, got %d %q", rec.Code, seenTrace)
	}

	if rec := send("Bearer secret", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the burst is spent, got %d", rec.Code)
	}
}
