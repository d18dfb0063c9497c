// Package middleware holds the chi middleware stack.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/ricwein/shurl/internal/tracker"
)

// RequestMeta extracts client IP, user agent, referrer, DNT signal and
// the request origin into the context, so handlers and the tracker never
// touch the raw request themselves.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := tracker.RequestMeta{
			Origin:     origin(r),
			ClientIP:   clientIP(r),
			UserAgent:  r.UserAgent(),
			Referrer:   r.Referer(),
			DoNotTrack: strings.TrimSpace(r.Header.Get("DNT")) == "1",
		}

		next.ServeHTTP(w, r.WithContext(tracker.ContextWithMeta(r.Context(), meta)))
	})
}

// origin rebuilds scheme://host for the frontend that served the
// request. The service is mounted at the root, so no base path applies.
func origin(r *http.Request) string {
	scheme := "http"

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For may carry a chain; the first hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
