// internal/model/app.go
//
// Registered mobile apps and their platform data.
//
// Context
// -------
// `platform_data` is stored verbatim as a JSON object.  Registration runs
// ValidatePlatformData, which is strict.  Redirect-time accessors
// (AndroidTarget, IOSTarget) are lenient: they only need the one field the
// resolver reads, so rows written before a rule was tightened still work.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/depl/internal/jsonobj"
)

// Platform is the mobile OS an App targets.
type Platform string

const (
	PlatformIOS     Platform = "IOS"
	PlatformAndroid Platform = "ANDROID"
)

// ParsePlatform accepts any letter case ("ios", "Android", …).
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToUpper(strings.TrimSpace(s))) {
	case PlatformIOS:
		return PlatformIOS, nil
	case PlatformAndroid:
		return PlatformAndroid, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// App is one row of `apps`.  At most one App exists per (workspace, platform).
type App struct {
	ID           string         `db:"id"            json:"id"`
	WorkspaceID  string         `db:"workspace_id"  json:"workspace_id"`
	Platform     Platform       `db:"platform"      json:"platform"`
	Name         string         `db:"name"          json:"name"`
	PlatformData jsonobj.Object `db:"platform_data" json:"platform_data"`
	CreatedAt    time.Time      `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"    json:"updated_at"`
}

//
// Platform data shapes
//

// AndroidData is the validated view of an Android App's platform_data.
type AndroidData struct {
	PackageName string   `json:"package_name" validate:"required"`
	SHA256List  []string `json:"sha256_list"  validate:"required,min=1,max=5,dive,required"`
	FallbackURL string   `json:"fallback_url" validate:"omitempty,url"`
}

// IOSData is the validated view of an iOS App's platform_data.  AppID is
// the numeric App Store id without the "id" prefix.
type IOSData struct {
	BundleID string `json:"bundle_id" validate:"required"`
	TeamID   string `json:"team_id"   validate:"required,len=10,alphanum"`
	AppID    string `json:"app_id"    validate:"required,numeric"`
}

var validate = validator.New()

// ValidatePlatformData checks data against the rules for p.
func ValidatePlatformData(p Platform, data jsonobj.Object) error {
	var target any
	switch p {
	case PlatformAndroid:
		target = &AndroidData{}
	case PlatformIOS:
		target = &IOSData{}
	default:
		return fmt.Errorf("unknown platform %q", p)
	}

	if err := data.Decode(target); err != nil {
		return fmt.Errorf("decode %s platform data: %w", p, err)
	}
	if err := validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s platform data: field %s failed %q", p, jsonName(fe.StructField()), fe.Tag())
		}
		return err
	}
	return nil
}

// jsonName maps the Go field names above to the JSON keys callers send.
func jsonName(field string) string {
	switch field {
	case "PackageName":
		return "package_name"
	case "SHA256List":
		return "sha256_list"
	case "FallbackURL":
		return "fallback_url"
	case "BundleID":
		return "bundle_id"
	case "TeamID":
		return "team_id"
	case "AppID":
		return "app_id"
	}
	return field
}

//
// Redirect-time accessors
//

// AndroidTarget returns the package name and optional fallback URL.  ok is
// false when package_name is missing or empty.
func (a App) AndroidTarget() (pkg, fallback string, ok bool) {
	pkg, _ = a.PlatformData.String("package_name")
	if pkg == "" {
		return "", "", false
	}
	fallback, _ = a.PlatformData.String("fallback_url")
	return pkg, fallback, true
}

// IOSTarget returns the bundle id and App Store id.  ok is false when
// bundle_id is missing or empty; appID may be empty.
func (a App) IOSTarget() (bundleID, appID string, ok bool) {
	bundleID, _ = a.PlatformData.String("bundle_id")
	if bundleID == "" {
		return "", "", false
	}
	appID, _ = a.PlatformData.String("app_id")
	return bundleID, appID, true
}

// TeamID returns the iOS team id, or "".
func (a App) TeamID() string {
	s, _ := a.PlatformData.String("team_id")
	return s
}

// SHA256List returns the Android signing certificate fingerprints.
func (a App) SHA256List() []string {
	var d struct {
		List []string `json:"sha256_list"`
	}
	if err := a.PlatformData.Decode(&d); err != nil {
		return nil
	}
	return d.List
}

// FindApp returns the App for p, or nil.
func FindApp(apps []App, p Platform) *App {
	for i := range apps {
		if apps[i].Platform == p {
			return &apps[i]
		}
	}
	return nil
}
