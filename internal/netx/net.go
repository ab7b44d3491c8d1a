// Package netx resolves the opaque per-client identity key from request
// metadata. The engine treats the key as an opaque string; this package is
// the only place that knows where it comes from.
package netx

import (
	"net"
	"net/http"
	"strings"

	"github.com/dpetrovs/localsync/internal/common"
)

// ClientKey picks the identity key for a request. An explicit key supplied
// by the client (query parameter or request body) wins, then the persistent
// client identifier header, then the client IP address.
func ClientKey(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if id := r.Header.Get(common.ClientIDHeaderName); id != "" {
		return id
	}
	return ClientIP(r)
}

// ClientIP extracts the originating client address, honoring the usual
// proxy headers before falling back to the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First address in the list is the originating client.
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
