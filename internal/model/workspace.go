// internal/model/workspace.go
//
// Row types shared by the store, registry, workspace, and redirect packages.
//
// Context
// -------
// A Workspace owns a globally unique subdomain, one api key (create and
// read), and one client key (read only).  The monthly counters are soft
// quotas; nothing in the request path enforces them.  Keys are tagged
// `json:"-"` so a Workspace never leaks credentials when encoded.
package model

import "time"

// Workspace is one row of `workspaces`.
type Workspace struct {
	ID                 string     `db:"id"                           json:"id"`
	Name               string     `db:"name"                         json:"name"`
	Description        string     `db:"description"                  json:"description"`
	SubDomain          string     `db:"sub_domain"                   json:"sub_domain"`
	APIKey             string     `db:"api_key"                      json:"-"`
	ClientKey          string     `db:"client_key"                   json:"-"`
	MonthlyCreateCount int64      `db:"current_monthly_create_count" json:"current_monthly_create_count"`
	MonthlyClickCount  int64      `db:"current_monthly_click_count"  json:"current_monthly_click_count"`
	NextQuotaUpdateAt  *time.Time `db:"next_quota_update_at"         json:"next_quota_update_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at"                   json:"created_at"`
}

// Stats summarises deep-link activity for one workspace.
type Stats struct {
	TotalLinks         int64   `db:"total_links"  json:"total_links"`
	TotalClicks        int64   `db:"total_clicks" json:"total_clicks"`
	AvgClicksPerLink   float64 `db:"-"            json:"avg_clicks_per_link"`
	MonthlyCreateCount int64   `db:"-"            json:"current_monthly_create_count"`
	MonthlyClickCount  int64   `db:"-"            json:"current_monthly_click_count"`
}
