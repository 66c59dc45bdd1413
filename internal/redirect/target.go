// internal/redirect/target.go
//
// Navigation targets handed to the holding page.
//
// Context
// -------
// Android opens the app through an intent URL whose host and path repeat
// the deep link itself, so an installed app with verified App Links gets
// the same URL it would receive from a tap.  When the package is missing
// Chrome follows `S.browser_fallback_url`, which defaults to the Play Store
// listing.  iOS uses the universal link directly; Safari hands it to the
// app when the apple-app-site-association file claims the host.
package redirect

import (
	"net/url"

	"github.com/yanizio/depl/internal/jsonobj"
)

// IntentURL builds the Android intent URL for linkHost/slug.  An empty
// fallback selects the Play Store page for pkg.
func IntentURL(linkHost, slug, pkg, fallback string) string {
	if fallback == "" {
		fallback = PlayStoreURL(pkg)
	}
	return "intent://" + linkHost + "/" + slug +
		"#Intent;package=" + pkg +
		";action=android.intent.action.VIEW;scheme=https" +
		";S.browser_fallback_url=" + url.QueryEscape(fallback) +
		";end;"
}

// UniversalLink builds https://linkHost/slug with params as the query.
// The "?" is omitted when params renders empty.
func UniversalLink(linkHost, slug string, params jsonobj.Object) string {
	u := "https://" + linkHost + "/" + slug
	if q := params.QueryString(); q != "" {
		u += "?" + q
	}
	return u
}

// PlayStoreURL is the Play Store listing for pkg.
func PlayStoreURL(pkg string) string {
	return "https://play.google.com/store/apps/details?id=" + url.QueryEscape(pkg)
}

// AppStoreURL is the App Store listing for a numeric app id.
func AppStoreURL(appID string) string {
	return "https://apps.apple.com/app/id" + url.PathEscape(appID)
}
