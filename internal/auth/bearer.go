package auth

import "strings"

// Mode selects which workspace key a route accepts.
type Mode int

const (
	// ModeAPI accepts only the api key (create and read).
	ModeAPI Mode = iota
	// ModeClient accepts the client key, or the api key.
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "api"
}

// BearerToken extracts the credential from an Authorization header value.
// The scheme is matched case-insensitively; ok is false for a missing
// header, another scheme, or an empty or space-containing token.
func BearerToken(header string) (token string, ok bool) {
	const scheme = "bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token = strings.TrimSpace(header[len(scheme):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
