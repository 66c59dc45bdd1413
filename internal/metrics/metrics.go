// Package metrics holds the Prometheus instruments used across the service.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

//
// Workspace cache
//

var (
	ActiveWorkspaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "depl_active_workspaces",
			Help: "Number of workspaces currently held in the host cache.",
		})

	WorkspaceLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depl_workspace_load_total",
			Help: "Cumulative number of workspaces loaded into the cache.",
		})

	WorkspaceLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depl_workspace_load_errors_total",
			Help: "Cumulative number of workspace cache load errors, unknown subdomains included.",
		})

	WorkspaceEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depl_workspace_evict_total",
			Help: "Cumulative number of workspaces evicted from the cache.",
		})
)

//
// Link registry
//

var (
	DeeplinksCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depl_deeplinks_created_total",
			Help: "Deep links created, by slug kind (random or explicit).",
		}, []string{"slug"})

	SlugCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depl_slug_collisions_total",
			Help: "Random slug candidates rejected because they were already taken.",
		})

	RegistryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depl_registry_errors_total",
			Help: "Registry failures by error code.",
		}, []string{"code"})
)

//
// Redirect resolver
//

var (
	RedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depl_redirects_total",
			Help: "Resolved visits by detected platform and outcome.",
		}, []string{"platform", "outcome"})

	ClickRecordErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "depl_click_record_errors_total",
			Help: "Click increments that failed in the background.",
		})

	VisitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depl_visits_total",
			Help: "Link visits by device class and bot flag.",
		}, []string{"device", "bot"})
)

//
// HTTP
//

var RateLimitedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "depl_rate_limited_total",
		Help: "API requests rejected by the rate limiter.",
	})

func init() {
	prometheus.MustRegister(
		ActiveWorkspaces,
		WorkspaceLoadTotal,
		WorkspaceLoadErrorsTotal,
		WorkspaceEvictTotal,
		DeeplinksCreatedTotal,
		SlugCollisionsTotal,
		RegistryErrorsTotal,
		RedirectsTotal,
		ClickRecordErrorsTotal,
		VisitsTotal,
		RateLimitedTotal,
	)
}
