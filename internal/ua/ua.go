// internal/ua/ua.go
//
// User-Agent parsing helpers for analytics.
//
// This wrapper isolates the third-party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  Redirect
// dispatch does not use it: the Android/iOS/other split is a fixed pair of
// regular expressions in internal/redirect, and this package only labels
// visits (device class, bot flag) for logs and metrics.
package ua

import (
	"fmt"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Info carries the UA attributes attached to each request by requestinfo.
//
// Example (Chrome on macOS):
//
//	Browser   "Chrome"
//	Version   "125.0.6422"
//	OS        "Mac OS X"
//	OSVersion "14.4"
//	Device    "Desktop"
//	Platform  "Macintosh"
//	IsBot     false
//	Raw       "Mozilla/5.0 (Macintosh;…"
//
// Device will be one of: "Desktop", "Mobile", "Tablet", "Bot", or "Other".
type Info struct {
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	Platform  string
	IsBot     bool
	Raw       string
}

// Parse converts a raw header into an Info struct.
func Parse(raw string) Info {
	ua := surfer.Parse(raw)

	info := Info{
		Browser:   ua.Browser.Name.StringTrimPrefix(),
		Version:   versionToString(ua.Browser.Version),
		OS:        ua.OS.Name.StringTrimPrefix(),
		OSVersion: versionToString(ua.OS.Version),
		Platform:  ua.OS.Platform.StringTrimPrefix(),
		IsBot:     ua.IsBot(),
		Raw:       raw,
	}

	switch {
	case info.IsBot:
		info.Device = "Bot"
	case ua.DeviceType == surfer.DeviceComputer:
		info.Device = "Desktop"
	case ua.DeviceType == surfer.DeviceTablet:
		info.Device = "Tablet"
	case ua.DeviceType == surfer.DevicePhone, ua.DeviceType == surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}

	return info
}

// Label is Device lower-cased, for metric labels with bounded cardinality.
func (i Info) Label() string { return strings.ToLower(i.Device) }

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
