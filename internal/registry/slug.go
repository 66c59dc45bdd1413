package registry

import (
	"crypto/rand"
	"io"
	"math/big"
	"regexp"
)

const (
	// SlugAlphabet is the random-slug character set: [A-Za-z0-9].
	SlugAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// SlugLength is the length of a random slug.
	SlugLength = 6
	// MaxSlugAttempts bounds the random-slug retry loop.
	MaxSlugAttempts = 10
)

// explicitSlug is one path segment of 1-64 unreserved URL characters
// (RFC 3986 section 2.3), so the slug appears in the link URL exactly as
// stored.  A leading dot is refused: it would allow "." and "..", and
// ".well-known" is served by the link host itself.
var explicitSlug = regexp.MustCompile(`^[A-Za-z0-9_~-][A-Za-z0-9._~-]{0,63}$`)

// ValidSlug reports whether s is acceptable as a caller-chosen slug.
func ValidSlug(s string) bool { return explicitSlug.MatchString(s) }

// generateSlug draws SlugLength characters uniformly from SlugAlphabet.
// rand.Int rejects out-of-range draws internally, so there is no modulo bias.
func generateSlug(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	size := big.NewInt(int64(len(SlugAlphabet)))
	b := make([]byte, SlugLength)
	for i := range b {
		n, err := rand.Int(r, size)
		if err != nil {
			return "", err
		}
		b[i] = SlugAlphabet[n.Int64()]
	}
	return string(b), nil
}
