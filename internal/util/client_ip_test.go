package util

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	proxies, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("NewTrustedProxies: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		proxies    *TrustedProxies
		want       string
	}{
		{
			name:       "untrusted peer ignores forwarding headers",
			remoteAddr: "198.51.100.10:1234",
			xff:        "203.0.113.5",
			realIP:     "203.0.113.6",
			want:       "198.51.100.10",
		},
		{
			name:       "trusted peer honors x-forwarded-for",
			remoteAddr: "10.0.0.20:1234",
			xff:        "203.0.113.5",
			proxies:    proxies,
			want:       "203.0.113.5",
		},
		{
			name:       "rightmost untrusted hop wins",
			remoteAddr: "10.0.0.20:1234",
			xff:        "203.0.113.5, 10.0.0.10",
			proxies:    proxies,
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip backstop when the chain is garbage",
			remoteAddr: "10.0.0.20:1234",
			xff:        "invalid",
			realIP:     "203.0.113.7",
			proxies:    proxies,
			want:       "203.0.113.7",
		},
		{
			name:       "all-proxy chain falls back to the leftmost hop",
			remoteAddr: "10.0.0.20:1234",
			xff:        "10.0.0.5, 10.0.0.10",
			proxies:    proxies,
			want:       "10.0.0.5",
		},
		{
			name:       "ipv6 peer",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://example.com", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req, tc.proxies); got != tc.want {
				t.Fatalf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	if p, err := NewTrustedProxies(nil); err != nil || p != nil {
		t.Fatalf("empty input: proxies=%v err=%v", p, err)
	}
	if _, err := NewTrustedProxies([]string{"10.0.0.0/8", "2001:db8::1"}); err != nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"bad-cidr"}); err == nil {
		t.Fatal("expected error for unparsable entry")
	}
}
