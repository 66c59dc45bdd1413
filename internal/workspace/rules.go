package workspace

import (
	"regexp"

	"github.com/yanizio/depl/internal/apperr"
)

const (
	minSubdomainLen = 3
	maxSubdomainLen = 30
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// reserved subdomains can never be claimed by a workspace.
var reserved = map[string]struct{}{
	"www": {}, "api": {}, "admin": {}, "app": {}, "test": {}, "dev": {},
	"staging": {}, "prod": {}, "production": {}, "mail": {}, "email": {},
	"ftp": {}, "ssh": {},
}

// ValidateSubdomain applies the format rules.  It does not check
// availability.
func ValidateSubdomain(sub string) error {
	switch {
	case sub == "":
		return apperr.InvalidRequest.WithMessage("subdomain is required")
	case len(sub) < minSubdomainLen || len(sub) > maxSubdomainLen:
		return apperr.InvalidRequest.WithMessage("subdomain must be between 3 and 30 characters")
	case !subdomainPattern.MatchString(sub):
		return apperr.InvalidRequest.WithMessage(
			"subdomain may contain only lowercase letters, digits, and inner hyphens")
	}
	if _, ok := reserved[sub]; ok {
		return apperr.InvalidRequest.WithMessage("subdomain is reserved")
	}
	return nil
}
