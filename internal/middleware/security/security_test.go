package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(ok())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, name := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if rr.Header().Get(name) == "" {
			t.Errorf("missing header %s", name)
		}
	}
	if rr.Header().Get("Cross-Origin-Embedder-Policy") != "" {
		t.Error("COEP should be unset by default")
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}
}

func TestDetectorInspect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		method string
		target string
		agent  string
		xff    string
		want   string
	}{
		{"page load", http.MethodGet, "/ui/chart", "Mozilla/5.0", "", ""},
		{"api script", http.MethodGet, "/api/monthly-totals", "curl/8.5.0", "", ""},
		{"path traversal", http.MethodGet, "/../../etc/passwd", "", "", "fragment ../"},
		{"dotenv in query", http.MethodGet, "/ui/chart?f=.ENV", "", "", "fragment .env"},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", "", "scanner sqlmap"},
		{"trace method", "TRACE", "/", "", "", "method TRACE"},
		{"long chain", http.MethodGet, "/", "", "1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6", "forwarding chain too long"},
	}
	flagged := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			req.Header.Set("User-Agent", tt.agent)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := d.Inspect(req); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
		if tt.want != "" {
			flagged++
		}
	}
	if got := d.GetMetrics().SuspiciousRequests; got != int64(flagged) {
		t.Errorf("SuspiciousRequests = %d, want %d", got, flagged)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := d.ExtractClientIP(req); ip != "203.0.113.7" {
		t.Errorf("expected forwarded IP from trusted proxy, got %s", ip)
	}

	req.RemoteAddr = "198.51.100.1:1234"
	if ip := d.ExtractClientIP(req); ip != "198.51.100.1" {
		t.Errorf("untrusted peer must not be able to spoof IP, got %s", ip)
	}

	if err := d.AddTrustedProxy("198.51.100.0/24"); err != nil {
		t.Fatal(err)
	}
	if ip := d.ExtractClientIP(req); ip != "203.0.113.7" {
		t.Errorf("added proxy range should be trusted, got %s", ip)
	}
	if err := d.AddTrustedProxy("198.51.100.1"); err == nil {
		t.Error("bare address should be rejected")
	}

	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.Header.Set("X-Real-IP", "203.0.113.8")
	if ip := d.ExtractClientIP(req); ip != "203.0.113.8" {
		t.Errorf("expected X-Real-IP fallback, got %s", ip)
	}
	if got := d.GetMetrics().InvalidIPAttempts; got != 1 {
		t.Errorf("InvalidIPAttempts = %d, want 1", got)
	}
}
