package netx

import (
	"net/http/httptest"
	"testing"

	"github.com/dpetrovs/localsync/internal/common"
)

func TestClientKey_ExplicitWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/sync", nil)
	r.Header.Set(common.ClientIDHeaderName, "browser-id")
	r.RemoteAddr = "10.0.0.5:51234"

	if got := ClientKey(r, "user_abc"); got != "user_abc" {
		t.Fatalf("expected explicit key, got %q", got)
	}
}

func TestClientKey_HeaderBeforeIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/sync", nil)
	r.Header.Set(common.ClientIDHeaderName, "browser-id")
	r.RemoteAddr = "10.0.0.5:51234"

	if got := ClientKey(r, ""); got != "browser-id" {
		t.Fatalf("expected header key, got %q", got)
	}
}

func TestClientKey_FallsBackToIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/sync", nil)
	r.RemoteAddr = "10.0.0.5:51234"

	if got := ClientKey(r, ""); got != "10.0.0.5" {
		t.Fatalf("expected remote IP, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr host only",
			remoteAddr: "192.168.1.20:40000",
			want:       "192.168.1.20",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "127.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for list takes first",
			remoteAddr: "127.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "127.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.2"},
			want:       "198.51.100.2",
		},
		{
			name:       "malformed remote addr returned as-is",
			remoteAddr: "not-an-addr",
			want:       "not-an-addr",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
