// internal/model/deeplink.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yanizio/depl/internal/jsonobj"
)

// Source records which surface created a Deeplink.
type Source string

const (
	SourceUI  Source = "UI"
	SourceAPI Source = "API"
)

// Social meta defaults applied per field when the caller omits a value.
const (
	DefaultSocialTitle       = "Depl.link | App Download"
	DefaultSocialDescription = "Download the mobile app for a better experience."
	DefaultSocialThumbnail   = "/images/og-image.jpg"
)

// SocialMeta drives the Open Graph tags on the holding page.
type SocialMeta struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// WithDefaults fills every empty field with its default.
func (m SocialMeta) WithDefaults() SocialMeta {
	if m.Title == "" {
		m.Title = DefaultSocialTitle
	}
	if m.Description == "" {
		m.Description = DefaultSocialDescription
	}
	if m.ThumbnailURL == "" {
		m.ThumbnailURL = DefaultSocialThumbnail
	}
	return m
}

// Scan implements sql.Scanner for the JSON column.
func (m *SocialMeta) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = SocialMeta{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("social_meta: cannot scan %T", src)
	}
}

// Value implements driver.Valuer.
func (m SocialMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Deeplink is one row of `deeplinks`.  (workspace_id, slug) is unique.
// AndroidParameters and IOSParameters are legacy columns, written as {}
// and never read at redirect time.
type Deeplink struct {
	WorkspaceID       string         `db:"workspace_id"       json:"workspace_id"`
	Slug              string         `db:"slug"               json:"slug"`
	ShortCode         string         `db:"short_code"         json:"short_code"`
	IsRandomSlug      bool           `db:"is_random_slug"     json:"is_random_slug"`
	AppParams         jsonobj.Object `db:"app_params"         json:"app_params"`
	AndroidParameters jsonobj.Object `db:"android_parameters" json:"android_parameters"`
	IOSParameters     jsonobj.Object `db:"ios_parameters"     json:"ios_parameters"`
	SocialMeta        SocialMeta     `db:"social_meta"        json:"social_meta"`
	Source            Source         `db:"source"             json:"source"`
	ClickCount        int64          `db:"click_count"        json:"click_count"`
	CreatedAt         time.Time      `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"         json:"updated_at"`
}
