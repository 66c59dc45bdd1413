// internal/middleware/security.go
//
// Security-header middleware.
//
// Injects industry-standard headers on every response:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years + preload)
//   • Content-Security-Policy   –  deny-all default (API responses are JSON)
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • Defaults are written *before* next.ServeHTTP, since nothing written
//   after the handler flushes reaches the client.  Handlers that need a
//   different value (the redirect page loosens the CSP for its inline
//   script) simply Set their own.
// • Behind a TLS-terminating proxy HSTS is still useful because browsers
//   see the workspace domain as HTTPS.

package middleware

import "net/http"

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts = "max-age=63072000; includeSubDomains; preload"
		csp  = "default-src 'none'; object-src 'none'; base-uri 'none'; " +
			"frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
		perm  = "geolocation=(), microphone=(), camera=()"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Strict-Transport-Security", hsts)
		hdr.Set("Content-Security-Policy", csp)
		hdr.Set("X-Frame-Options", xfo)
		hdr.Set("X-Content-Type-Options", nosn)
		hdr.Set("Referrer-Policy", refer)
		hdr.Set("Permissions-Policy", perm)

		next.ServeHTTP(w, r)
	})
}
