// internal/redirect/resolver.go
//
// Redirect Resolver.
//
// Context
// -------
// Resolve turns one visit into a Decision the page renderer can act on.
// It never returns an error: every failure degrades to a page without
// navigation, and the cause is logged for operators.
//
//	subdomain ─► workspace ─► deeplink ─┬─► click (detached goroutine)
//	                                    └─► platform ─► target
//
// Click accounting
// ----------------
// The increment runs on its own context with ClickTimeout, so neither the
// client hanging up nor a slow database touches the response.  Errors are
// logged and counted, never surfaced.  Wait blocks until in-flight
// increments finish; main calls it during shutdown.
package redirect

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/metrics"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
	"github.com/yanizio/depl/internal/workspace"
)

// DefaultClickTimeout bounds one background click increment.
const DefaultClickTimeout = 5 * time.Second

// Store is the persistence the resolver needs.  *store.Store satisfies it.
type Store interface {
	DeeplinkBySlug(ctx context.Context, workspaceID, slug string) (*model.Deeplink, error)
	AppsByWorkspace(ctx context.Context, workspaceID string) ([]model.App, error)
	IncrementClick(ctx context.Context, workspaceID, slug string) error
}

// Workspaces resolves a subdomain.  *workspace.Cache satisfies it.
type Workspaces interface {
	Get(ctx context.Context, sub string) (*model.Workspace, error)
}

// Outcome is what the page should do.
type Outcome string

const (
	// OutcomeNotFound renders the fallback page with a 404 status.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeRedirect renders the holding page and navigates to Target.
	OutcomeRedirect Outcome = "redirect"
	// OutcomeHold renders the holding page without navigation.
	OutcomeHold Outcome = "hold"
	// OutcomeFallback renders the web page with store badges.
	OutcomeFallback Outcome = "fallback"
)

// Visit is one inbound request.
type Visit struct {
	Host      string
	Slug      string
	UserAgent string
	Referer   string
}

// Decision is the resolved result of a Visit.
type Decision struct {
	Outcome  Outcome
	Platform Platform
	LinkHost string
	Target   string
	Deeplink *model.Deeplink

	// Store badges, set when the matching App is configured.
	PlayStoreURL string
	AppStoreURL  string
}

// Options tune a Resolver.
type Options struct {
	LinkDomain   string
	ClickTimeout time.Duration
}

// Resolver is safe for concurrent use.
type Resolver struct {
	store      Store
	workspaces Workspaces
	opts       Options
	log        *zap.Logger
	inflight   sync.WaitGroup
}

// New returns a Resolver.
func New(st Store, ws Workspaces, opts Options) *Resolver {
	if opts.LinkDomain == "" {
		opts.LinkDomain = "depl.link"
	}
	if opts.ClickTimeout <= 0 {
		opts.ClickTimeout = DefaultClickTimeout
	}
	return &Resolver{store: st, workspaces: ws, opts: opts, log: zap.L().Named("redirect")}
}

// Resolve runs the visit state machine.
func (r *Resolver) Resolve(ctx context.Context, v Visit) Decision {
	sub := workspace.SubdomainFromHost(v.Host, r.opts.LinkDomain)
	d := Decision{
		Outcome:  OutcomeNotFound,
		Platform: DetectPlatform(v.UserAgent),
		LinkHost: workspace.LinkHost(sub, r.opts.LinkDomain),
	}
	fields := []zap.Field{
		zap.String("sub_domain", sub),
		zap.String("slug", v.Slug),
		zap.String("platform", string(d.Platform)),
	}

	ws, err := r.workspaces.Get(ctx, sub)
	if err != nil {
		if !errors.Is(err, workspace.ErrNotFound) {
			r.log.Error("workspace lookup failed", append(fields, zap.Error(err))...)
		}
		return r.done(d)
	}
	fields = append(fields, zap.String("workspace_id", ws.ID))

	dl, err := r.store.DeeplinkBySlug(ctx, ws.ID, v.Slug)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error("deeplink lookup failed", append(fields, zap.Error(err))...)
		}
		return r.done(d)
	}
	d.Deeplink = dl

	r.recordClick(ws.ID, dl.Slug)

	apps, err := r.store.AppsByWorkspace(ctx, ws.ID)
	if err != nil {
		r.log.Error("app lookup failed", append(fields, zap.Error(err))...)
		d.Outcome = OutcomeHold
		return r.done(d)
	}

	switch d.Platform {
	case PlatformAndroid:
		app := model.FindApp(apps, model.PlatformAndroid)
		if app == nil {
			r.log.Error("android app not configured", fields...)
			d.Outcome = OutcomeHold
			break
		}
		pkg, fallback, ok := app.AndroidTarget()
		if !ok {
			r.log.Error("android app has no package_name", append(fields, zap.String("app_id", app.ID))...)
			d.Outcome = OutcomeHold
			break
		}
		d.Outcome = OutcomeRedirect
		d.Target = IntentURL(d.LinkHost, dl.Slug, pkg, fallback)

	case PlatformIOS:
		app := model.FindApp(apps, model.PlatformIOS)
		if app == nil {
			r.log.Error("ios app not configured", fields...)
			d.Outcome = OutcomeHold
			break
		}
		if _, _, ok := app.IOSTarget(); !ok {
			r.log.Error("ios app has no bundle_id", append(fields, zap.String("app_id", app.ID))...)
			d.Outcome = OutcomeHold
			break
		}
		d.Outcome = OutcomeRedirect
		d.Target = UniversalLink(d.LinkHost, dl.Slug, dl.AppParams)

	default:
		d.Outcome = OutcomeFallback
		if app := model.FindApp(apps, model.PlatformAndroid); app != nil {
			if pkg, _, ok := app.AndroidTarget(); ok {
				d.PlayStoreURL = PlayStoreURL(pkg)
			}
		}
		if app := model.FindApp(apps, model.PlatformIOS); app != nil {
			if _, appID, ok := app.IOSTarget(); ok && appID != "" {
				d.AppStoreURL = AppStoreURL(appID)
			}
		}
	}

	r.log.Debug("visit resolved", append(fields,
		zap.String("outcome", string(d.Outcome)),
		zap.String("referer", v.Referer),
	)...)
	return r.done(d)
}

// Wait blocks until every in-flight click increment has finished.
func (r *Resolver) Wait() { r.inflight.Wait() }

// recordClick increments the counters without blocking the caller.
func (r *Resolver) recordClick(workspaceID, slug string) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.ClickTimeout)
		defer cancel()

		if err := r.store.IncrementClick(ctx, workspaceID, slug); err != nil {
			metrics.ClickRecordErrorsTotal.Inc()
			r.log.Warn("click not recorded",
				zap.String("workspace_id", workspaceID),
				zap.String("slug", slug),
				zap.Error(err),
			)
		}
	}()
}

func (r *Resolver) done(d Decision) Decision {
	metrics.RedirectsTotal.WithLabelValues(string(d.Platform), string(d.Outcome)).Inc()
	return d
}
