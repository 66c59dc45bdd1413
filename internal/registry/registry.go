// internal/registry/registry.go
//
// Link Registry: key authentication and deep-link creation.
//
// Context
// -------
// The HTTP layer resolves nothing itself.  It hands the raw Authorization
// header to Authenticate, then passes the resulting workspace plus the
// decoded request to CreateDeeplink or GetDeeplink.  Every failure comes
// back as an *apperr.Error so the caller can render the JSON envelope
// without inspecting storage errors.
//
// Slug allocation
// ---------------
//   - Explicit slug: validate, check, insert.  A taken slug is
//     SLUG_ALREADY_EXISTS whether the check or the unique key catches it.
//   - Random slug: up to MaxSlugAttempts draws.  A draw is spent when the
//     existence check says taken or the insert trips the unique key.
//     Exhausting the budget is SLUG_GENERATION_FAILED.  No lock is taken;
//     the (workspace_id, slug) key is the arbiter between racing creators.
//
// Notes
// -----
//   - The monthly create counter is best-effort.  A failed increment is
//     logged and the create still succeeds.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/apperr"
	"github.com/yanizio/depl/internal/auth"
	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/metrics"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
)

// Store is the persistence the registry needs.  *store.Store satisfies it.
type Store interface {
	WorkspaceByAPIKey(ctx context.Context, key string) (*model.Workspace, error)
	WorkspaceByClientKey(ctx context.Context, key string) (*model.Workspace, error)
	CountApps(ctx context.Context, workspaceID string) (int, error)
	DeeplinkExists(ctx context.Context, workspaceID, slug string) (bool, error)
	InsertDeeplink(ctx context.Context, dl *model.Deeplink) error
	DeeplinkBySlug(ctx context.Context, workspaceID, slug string) (*model.Deeplink, error)
	ListDeeplinks(ctx context.Context, workspaceID string, source model.Source, limit int) ([]model.Deeplink, error)
	WorkspaceStats(ctx context.Context, workspaceID string) (model.Stats, error)
	IncrementCreateCount(ctx context.Context, workspaceID string) error
}

// Options tune a Service.  Zero values fall back to production defaults.
type Options struct {
	LinkDomain string           // e.g. "depl.link"
	Now        func() time.Time // clock, for tests
	Rand       io.Reader        // slug entropy, for tests
}

// Service implements the Link Registry.  Safe for concurrent use.
type Service struct {
	store Store
	opts  Options
	log   *zap.Logger
}

// New returns a Service backed by st.
func New(st Store, opts Options) *Service {
	if opts.LinkDomain == "" {
		opts.LinkDomain = "depl.link"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: st, opts: opts, log: zap.L().Named("registry")}
}

// CreateRequest is the decoded body of POST /api/deeplink.
type CreateRequest struct {
	AppParams  *jsonobj.Object
	Slug       string
	SocialMeta model.SocialMeta
}

// CreateResult is returned on success.
type CreateResult struct {
	Deeplink    *model.Deeplink
	DeeplinkURL string
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

/*──────────────────────────── authenticate ────────────────────────────────*/

// Authenticate resolves the Authorization header to a workspace.  ModeAPI
// accepts only the api key; ModeClient accepts the client key, then the
// api key.  Pure lookup with no side effects.
func (s *Service) Authenticate(ctx context.Context, header string, mode auth.Mode) (*model.Workspace, error) {
	token, ok := auth.BearerToken(header)
	if !ok {
		return nil, apperr.Unauthorized
	}

	if mode == auth.ModeClient {
		ws, err := s.store.WorkspaceByClientKey(ctx, token)
		switch {
		case err == nil:
			return ws, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, apperr.ServerError.Wrap(err)
		}
	}

	ws, err := s.store.WorkspaceByAPIKey(ctx, token)
	switch {
	case err == nil:
		return ws, nil
	case errors.Is(err, store.ErrNotFound):
		if mode == auth.ModeClient {
			return nil, apperr.InvalidClientKey
		}
		return nil, apperr.InvalidAPIKey
	default:
		return nil, apperr.ServerError.Wrap(err)
	}
}

/*──────────────────────────── create ──────────────────────────────────────*/

// CreateDeeplink validates req, allocates a slug, and persists the link
// with source API.
func (s *Service) CreateDeeplink(ctx context.Context, ws *model.Workspace, req CreateRequest) (*CreateResult, error) {
	random := req.Slug == ""
	if req.AppParams == nil {
		return nil, s.fail(ws, req.Slug, random, apperr.InvalidRequest.WithMessage("app_params is required"))
	}
	if !random && !ValidSlug(req.Slug) {
		return nil, s.fail(ws, req.Slug, random, apperr.InvalidRequest.WithMessage(
			"slug must be 1-64 characters of letters, digits, '-', '_', '.' or '~' and not start with '.'"))
	}

	n, err := s.store.CountApps(ctx, ws.ID)
	if err != nil {
		return nil, s.fail(ws, req.Slug, random, apperr.CreationFailed.Wrap(err))
	}
	if n == 0 {
		return nil, s.fail(ws, req.Slug, random, apperr.NoAppsConfigured)
	}

	now := s.opts.Now().UTC()
	dl := &model.Deeplink{
		WorkspaceID:       ws.ID,
		AppParams:         *req.AppParams,
		AndroidParameters: jsonobj.New(),
		IOSParameters:     jsonobj.New(),
		SocialMeta:        req.SocialMeta.WithDefaults(),
		Source:            model.SourceAPI,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var ierr *apperr.Error
	if random {
		ierr = s.insertRandom(ctx, dl)
	} else {
		ierr = s.insertExplicit(ctx, dl, req.Slug)
	}
	if ierr != nil {
		return nil, s.fail(ws, dl.Slug, random, ierr)
	}

	kind := "explicit"
	if dl.IsRandomSlug {
		kind = "random"
	}
	metrics.DeeplinksCreatedTotal.WithLabelValues(kind).Inc()

	if err := s.store.IncrementCreateCount(ctx, ws.ID); err != nil {
		s.log.Warn("create counter not incremented",
			zap.String("workspace_id", ws.ID),
			zap.String("slug", dl.Slug),
			zap.Error(err),
		)
	}

	s.log.Info("deeplink created",
		zap.String("workspace_id", ws.ID),
		zap.String("slug", dl.Slug),
		zap.Bool("is_random_slug", dl.IsRandomSlug),
	)
	return &CreateResult{Deeplink: dl, DeeplinkURL: s.DeeplinkURL(ws, dl.Slug)}, nil
}

func (s *Service) insertExplicit(ctx context.Context, dl *model.Deeplink, slug string) *apperr.Error {
	dl.Slug, dl.ShortCode, dl.IsRandomSlug = slug, slug, false

	taken, err := s.store.DeeplinkExists(ctx, dl.WorkspaceID, slug)
	if err != nil {
		return apperr.CreationFailed.Wrap(err)
	}
	if taken {
		return apperr.SlugExists
	}

	switch err := s.store.InsertDeeplink(ctx, dl); {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrDuplicate):
		return apperr.SlugExists.Wrap(err)
	default:
		return apperr.CreationFailed.Wrap(err)
	}
}

func (s *Service) insertRandom(ctx context.Context, dl *model.Deeplink) *apperr.Error {
	dl.IsRandomSlug = true

	for attempt := 1; attempt <= MaxSlugAttempts; attempt++ {
		slug, err := generateSlug(s.opts.Rand)
		if err != nil {
			return apperr.CreationFailed.Wrap(fmt.Errorf("read entropy: %w", err))
		}
		dl.Slug, dl.ShortCode = slug, slug

		taken, err := s.store.DeeplinkExists(ctx, dl.WorkspaceID, slug)
		if err != nil {
			return apperr.CreationFailed.Wrap(err)
		}
		if taken {
			metrics.SlugCollisionsTotal.Inc()
			continue
		}

		err = s.store.InsertDeeplink(ctx, dl)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrDuplicate) {
			metrics.SlugCollisionsTotal.Inc()
			continue
		}
		return apperr.CreationFailed.Wrap(err)
	}
	return apperr.SlugGenerationFailed.Wrap(
		fmt.Errorf("no free slug after %d attempts", MaxSlugAttempts))
}

/*──────────────────────────── read ────────────────────────────────────────*/

// GetDeeplink returns the workspace's link for slug.
func (s *Service) GetDeeplink(ctx context.Context, ws *model.Workspace, slug string) (*model.Deeplink, error) {
	if slug == "" {
		return nil, apperr.InvalidRequest.WithMessage("slug is required")
	}
	dl, err := s.store.DeeplinkBySlug(ctx, ws.ID, slug)
	switch {
	case err == nil:
		return dl, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound.WithMessage("Deep link not found")
	default:
		return nil, s.fail(ws, slug, false, apperr.ServerError.Wrap(err))
	}
}

// ListDeeplinks returns the newest links, optionally filtered by source.
// limit is clamped to 1..100; zero means 20.
func (s *Service) ListDeeplinks(ctx context.Context, ws *model.Workspace, source string, limit int) ([]model.Deeplink, error) {
	var src model.Source
	switch strings.ToUpper(source) {
	case "":
	case string(model.SourceAPI):
		src = model.SourceAPI
	case string(model.SourceUI):
		src = model.SourceUI
	default:
		return nil, apperr.InvalidRequest.WithMessage("source must be API or UI")
	}

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	out, err := s.store.ListDeeplinks(ctx, ws.ID, src, limit)
	if err != nil {
		return nil, s.fail(ws, "", false, apperr.ServerError.Wrap(err))
	}
	if out == nil {
		out = []model.Deeplink{}
	}
	return out, nil
}

// Stats returns link and click totals plus the monthly counters.
func (s *Service) Stats(ctx context.Context, ws *model.Workspace) (model.Stats, error) {
	st, err := s.store.WorkspaceStats(ctx, ws.ID)
	if err != nil {
		return model.Stats{}, s.fail(ws, "", false, apperr.ServerError.Wrap(err))
	}
	if st.TotalLinks > 0 {
		st.AvgClicksPerLink = float64(st.TotalClicks) / float64(st.TotalLinks)
	}
	st.MonthlyCreateCount = ws.MonthlyCreateCount
	st.MonthlyClickCount = ws.MonthlyClickCount
	return st, nil
}

// DeeplinkURL builds https://<subdomain>.<link domain>/<slug>.
func (s *Service) DeeplinkURL(ws *model.Workspace, slug string) string {
	return "https://" + ws.SubDomain + "." + s.opts.LinkDomain + "/" + slug
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// fail logs e with the request coordinates, counts it, and returns it.
func (s *Service) fail(ws *model.Workspace, slug string, random bool, e *apperr.Error) error {
	metrics.RegistryErrorsTotal.WithLabelValues(e.Code).Inc()

	fields := []zap.Field{
		zap.String("code", e.Code),
		zap.String("workspace_id", ws.ID),
		zap.String("slug", slug),
		zap.Bool("is_random_slug", random),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	if e.Status >= 500 {
		s.log.Error("registry request failed", fields...)
	} else {
		s.log.Info("registry request rejected", fields...)
	}
	return e
}
