package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
)

const (
	appCols = `id, workspace_id, platform, name, platform_data, created_at, updated_at`

	qAppsByWorkspace = `SELECT ` + appCols + ` FROM apps WHERE workspace_id = ? ORDER BY platform`
	qAppByPlatform   = `SELECT ` + appCols + ` FROM apps WHERE workspace_id = ? AND platform = ? LIMIT 1`
	qCountApps       = `SELECT COUNT(*) FROM apps WHERE workspace_id = ?`

	qInsertApp = `INSERT INTO apps
		(id, workspace_id, platform, name, platform_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	qUpdateAppData = `UPDATE apps SET platform_data = ?, updated_at = ? WHERE id = ?`
)

// AppsByWorkspace returns every App registered to the workspace.
func (s *Store) AppsByWorkspace(ctx context.Context, workspaceID string) ([]model.App, error) {
	var apps []model.App
	if err := s.db.SelectContext(ctx, &apps, qAppsByWorkspace, workspaceID); err != nil {
		return nil, fmt.Errorf("select apps: %w", err)
	}
	return apps, nil
}

// AppByPlatform returns the workspace's App for p, or ErrNotFound.
func (s *Store) AppByPlatform(ctx context.Context, workspaceID string, p model.Platform) (*model.App, error) {
	var app model.App
	if err := s.db.GetContext(ctx, &app, qAppByPlatform, workspaceID, p); err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

// CountApps returns how many Apps the workspace has registered.
func (s *Store) CountApps(ctx context.Context, workspaceID string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, qCountApps, workspaceID); err != nil {
		return 0, fmt.Errorf("count apps: %w", err)
	}
	return n, nil
}

// InsertApp writes app.  A second App for the same platform yields
// ErrDuplicate.
func (s *Store) InsertApp(ctx context.Context, app *model.App) error {
	_, err := s.db.ExecContext(ctx, qInsertApp,
		app.ID, app.WorkspaceID, app.Platform, app.Name,
		app.PlatformData, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert app: %w", translate(err))
	}
	return nil
}

// UpdateAppData replaces platform_data in place.
func (s *Store) UpdateAppData(ctx context.Context, appID string, data jsonobj.Object, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, qUpdateAppData, data, now, appID); err != nil {
		return fmt.Errorf("update app: %w", err)
	}
	return nil
}
