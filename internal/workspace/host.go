// internal/workspace/host.go
//
// Host header → workspace subdomain.
//
// Context
// -------
// Every workspace answers on `<subdomain>.<link domain>`.  The redirect
// handler, the well-known endpoints, and ForceHTTPS all need the same
// mapping from a raw Host header to the cache key:
//
//   • `stripPort`        – drops ":8080" and IPv6 brackets.
//   • `SubdomainFromHost` – left-most label, lower-cased, with "www"
//     normalised to "app" so the marketing host never looks like a tenant.
//
// Notes
// -----
// • No logging here; caller decides what to log.
// • A bare link domain ("depl.link") has no subdomain and returns "".
package workspace

import (
	"net"
	"strings"
)

// wwwAlias is where "www" is folded.
const wwwAlias = "app"

// SubdomainFromHost returns the workspace subdomain encoded in host, or ""
// when host is the bare link domain or empty.
func SubdomainFromHost(host, linkDomain string) string {
	h := strings.ToLower(stripPort(host))
	h = strings.TrimSuffix(h, ".")
	if h == "" || h == strings.ToLower(linkDomain) {
		return ""
	}

	label := h
	if i := strings.IndexByte(h, '.'); i != -1 {
		label = h[:i]
	}
	if label == "www" {
		return wwwAlias
	}
	return label
}

// LinkHost builds "<sub>.<linkDomain>".
func LinkHost(sub, linkDomain string) string {
	return sub + "." + linkDomain
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return strings.Trim(h, "[]")
}
