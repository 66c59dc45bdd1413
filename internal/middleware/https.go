// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// HostChecker reports whether host belongs to a known workspace.
// *workspace.Cache satisfies it through a closure in main.
type HostChecker func(ctx context.Context, host string) bool

// ForceHTTPS wraps h.  If the request arrived over plain HTTP (neither TLS
// nor X-Forwarded-Proto: https), the host is not a loopback name, and known
// confirms the workspace exists, the wrapper issues a 308 Permanent
// Redirect to the HTTPS version of the same URL.  Otherwise it calls the
// next handler unchanged.
func ForceHTTPS(known HostChecker, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Already HTTPS or dev host → continue.
		if isHTTPS(r) || isLoopback(stripPort(r.Host)) {
			h.ServeHTTP(w, r)
			return
		}

		// Only redirect if the host maps to a workspace.
		if known(r.Context(), r.Host) {
			target := "https://" + stripPort(r.Host) + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		// Unknown host → keep normal flow (likely 404 later).
		h.ServeHTTP(w, r)
	})
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func isLoopback(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}
