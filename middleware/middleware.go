package middleware

import (
	"net"
	"net/http"
	"strings"
)

var (
	xForwardedFor = http.CanonicalHeaderKey("X-Forwarded-For")
	xRealIP       = http.CanonicalHeaderKey("X-Real-IP")
)

// RealIPMiddleware rewrites RemoteAddr from proxy headers, but only
// when the direct peer is a loopback or private address we can trust.
func RealIPMiddleware(f http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)

		if err != nil {
			f.ServeHTTP(w, r)
			return
		}

		peer := net.ParseIP(host)

		if peer == nil || (!peer.IsLoopback() && !peer.IsPrivate()) {
			f.ServeHTTP(w, r)
			return
		}

		if ip := realIP(r); ip != "" {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}

		f.ServeHTTP(w, r)
	})
}

// realIP prefers X-Real-IP, falling back to the first entry of
// X-Forwarded-For, which is the original client in a well-behaved chain.
func realIP(r *http.Request) string {
	if xrip := r.Header.Get(xRealIP); xrip != "" {
		return xrip
	}

	if xff := r.Header.Get(xForwardedFor); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			xff = xff[:i]
		}

		return strings.TrimSpace(xff)
	}

	return ""
}
