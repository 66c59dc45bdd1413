// internal/workspace/service.go
//
// Workspace lifecycle: creation, subdomain checks, app registration, and
// the monthly quota refresh.
//
// Context
// -------
// These operations sit outside the request hot path.  `deplctl` drives
// Create and ResetQuotas; the API exposes CheckSubdomain and RegisterApp.
// RegisterApp is an upsert keyed by (workspace, platform): a workspace has
// at most one iOS and one Android App, and re-registering replaces the
// platform data in place.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/apperr"
	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
)

// Store is the persistence the Service needs.  *store.Store satisfies it.
type Store interface {
	SubdomainTaken(ctx context.Context, sub string) (bool, error)
	InsertWorkspace(ctx context.Context, ws *model.Workspace) error
	AppByPlatform(ctx context.Context, workspaceID string, p model.Platform) (*model.App, error)
	InsertApp(ctx context.Context, app *model.App) error
	UpdateAppData(ctx context.Context, appID string, data jsonobj.Object, now time.Time) error
	ResetQuotas(ctx context.Context, now, next time.Time) (int64, error)
}

// Service implements workspace administration.
type Service struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

// NewService returns a Service backed by st.
func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now, log: zap.L().Named("workspace")}
}

// CreateInput describes a new workspace.
type CreateInput struct {
	Name        string
	SubDomain   string
	Description string
}

// CheckSubdomain validates sub and reports whether it is still free.
func (s *Service) CheckSubdomain(ctx context.Context, sub string) (bool, error) {
	sub = strings.ToLower(strings.TrimSpace(sub))
	if err := ValidateSubdomain(sub); err != nil {
		return false, err
	}
	taken, err := s.store.SubdomainTaken(ctx, sub)
	if err != nil {
		return false, apperr.ServerError.Wrap(err)
	}
	return !taken, nil
}

// Create registers a workspace with fresh api and client keys.  The quota
// window opens now and closes one month later.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Workspace, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidRequest.WithMessage("name is required")
	}
	sub := strings.ToLower(strings.TrimSpace(in.SubDomain))
	free, err := s.CheckSubdomain(ctx, sub)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperr.InvalidRequest.WithMessage("subdomain is already taken")
	}

	now := s.now().UTC()
	next := now.AddDate(0, 1, 0)
	ws := &model.Workspace{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		SubDomain:         sub,
		APIKey:            uuid.NewString(),
		ClientKey:         uuid.NewString(),
		NextQuotaUpdateAt: &next,
		CreatedAt:         now,
	}
	if err := s.store.InsertWorkspace(ctx, ws); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.InvalidRequest.WithMessage("subdomain is already taken")
		}
		return nil, apperr.ServerError.Wrap(err)
	}

	s.log.Info("workspace created", zap.String("workspace_id", ws.ID), zap.String("sub_domain", sub))
	return ws, nil
}

// RegisterApp validates data for p and upserts the workspace's App.
func (s *Service) RegisterApp(ctx context.Context, ws *model.Workspace, p model.Platform, name string, data jsonobj.Object) (*model.App, error) {
	if err := model.ValidatePlatformData(p, data); err != nil {
		return nil, apperr.InvalidPlatformData.Wrap(err).WithMessage(err.Error())
	}
	now := s.now().UTC()

	existing, err := s.store.AppByPlatform(ctx, ws.ID, p)
	switch {
	case err == nil:
		return s.updateApp(ctx, existing, data, now)
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.ServerError.Wrap(err)
	}

	if name == "" {
		name = ws.Name + " " + strings.ToLower(string(p))
	}
	app := &model.App{
		ID:           uuid.NewString(),
		WorkspaceID:  ws.ID,
		Platform:     p,
		Name:         name,
		PlatformData: data,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.InsertApp(ctx, app)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent registration; update theirs.
		if existing, err = s.store.AppByPlatform(ctx, ws.ID, p); err == nil {
			return s.updateApp(ctx, existing, data, now)
		}
	}
	if err != nil {
		return nil, apperr.ServerError.Wrap(err)
	}

	s.log.Info("app registered",
		zap.String("workspace_id", ws.ID),
		zap.String("platform", string(p)),
		zap.String("app_id", app.ID),
	)
	return app, nil
}

func (s *Service) updateApp(ctx context.Context, app *model.App, data jsonobj.Object, now time.Time) (*model.App, error) {
	if err := s.store.UpdateAppData(ctx, app.ID, data, now); err != nil {
		return nil, apperr.ServerError.Wrap(err)
	}
	app.PlatformData = data
	app.UpdatedAt = now
	s.log.Info("app updated",
		zap.String("workspace_id", app.WorkspaceID),
		zap.String("platform", string(app.Platform)),
		zap.String("app_id", app.ID),
	)
	return app, nil
}

// ResetQuotas zeroes monthly counters whose window has closed and opens
// the next one-month window.
func (s *Service) ResetQuotas(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := s.store.ResetQuotas(ctx, now, now.AddDate(0, 1, 0))
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}
	s.log.Info("quotas reset", zap.Int64("workspaces", n))
	return n, nil
}
