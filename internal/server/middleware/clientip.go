package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the client address of r, or "unknown". Behind a proxy, mount chi's
// middleware.RealIP first so RemoteAddr reflects X-Forwarded-For / X-Real-IP.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
