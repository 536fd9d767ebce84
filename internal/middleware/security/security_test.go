package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPResolver_ClientIP(t *testing.T) {
	resolver, err := NewIPResolver("203.0.113.0/24")
	if err != nil {
		t.Fatalf("NewIPResolver: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		want       string
	}{
		{"direct client", "198.51.100.7:5555", "", "", "198.51.100.7"},
		{"untrusted peer ignores headers", "198.51.100.7:5555", "1.2.3.4", "", "198.51.100.7"},
		{"trusted proxy forwards", "10.0.0.2:8080", "1.2.3.4, 10.0.0.2", "", "1.2.3.4"},
		{"extra trusted proxy", "203.0.113.9:8080", "5.6.7.8", "", "5.6.7.8"},
		{"real ip fallback", "127.0.0.1:8080", "", "9.9.9.9", "9.9.9.9"},
		{"garbage forwarded header", "127.0.0.1:8080", "not-an-ip", "", "127.0.0.1"},
		{"remote addr without port", "198.51.100.7", "", "", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if got := resolver.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewIPResolverRejectsBadCIDR(t *testing.T) {
	if _, err := NewIPResolver("10.0.0.0/99"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing basic headers: %v", rr.Header())
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}
