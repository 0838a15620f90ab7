package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP picks the best guess at the caller's address: the first
// X-Forwarded-For hop when a proxy set one, then X-Real-IP, then the raw
// peer address. The auth rate limiter keys on this value.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			if candidate := strings.TrimSpace(first); candidate != "" {
				return candidate
			}
		}
		return fwd
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
