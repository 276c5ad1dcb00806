// Package netx contains small networking helpers shared by the HTTP layer.
package netx

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the requester address from an HTTP request. The first
// entry of X-Forwarded-For wins when present (the address the nearest proxy
// recorded), then X-Real-IP, then the connection's remote address with the
// port stripped.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
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
