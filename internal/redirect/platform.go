package redirect

import "regexp"

// Platform is the dispatch class derived from a User-Agent.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformOther   Platform = "other"
)

var (
	androidUA = regexp.MustCompile(`(?i)Android`)
	iosUA     = regexp.MustCompile(`(?i)iPhone|iPad|iPod`)
)

// DetectPlatform classifies ua.  Android is tested first, so a UA carrying
// both markers is Android.
func DetectPlatform(ua string) Platform {
	switch {
	case androidUA.MatchString(ua):
		return PlatformAndroid
	case iosUA.MatchString(ua):
		return PlatformIOS
	default:
		return PlatformOther
	}
}
