package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/depl/internal/model"
)

const (
	deeplinkCols = `workspace_id, slug, short_code, is_random_slug, app_params,
	android_parameters, ios_parameters, social_meta, source, click_count,
	created_at, updated_at`

	qDeeplinkBySlug = `SELECT ` + deeplinkCols + ` FROM deeplinks WHERE workspace_id = ? AND slug = ? LIMIT 1`
	qDeeplinkExists = `SELECT COUNT(*) FROM deeplinks WHERE workspace_id = ? AND slug = ?`

	qListDeeplinks         = `SELECT ` + deeplinkCols + ` FROM deeplinks WHERE workspace_id = ? ORDER BY created_at DESC LIMIT ?`
	qListDeeplinksBySource = `SELECT ` + deeplinkCols + ` FROM deeplinks WHERE workspace_id = ? AND source = ? ORDER BY created_at DESC LIMIT ?`

	qInsertDeeplink = `INSERT INTO deeplinks
		(workspace_id, slug, short_code, is_random_slug, app_params,
		 android_parameters, ios_parameters, social_meta, source,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	qIncrementDeeplinkClick = `UPDATE deeplinks SET click_count = click_count + 1
		WHERE workspace_id = ? AND slug = ?`
	qIncrementWorkspaceClick = `UPDATE workspaces
		SET current_monthly_click_count = current_monthly_click_count + 1
		WHERE id = ?`

	qStats = `SELECT COUNT(*) AS total_links, COALESCE(SUM(click_count), 0) AS total_clicks
		FROM deeplinks WHERE workspace_id = ?`
)

// DeeplinkBySlug returns the link or ErrNotFound.
func (s *Store) DeeplinkBySlug(ctx context.Context, workspaceID, slug string) (*model.Deeplink, error) {
	var dl model.Deeplink
	if err := s.db.GetContext(ctx, &dl, qDeeplinkBySlug, workspaceID, slug); err != nil {
		return nil, translate(err)
	}
	return &dl, nil
}

// DeeplinkExists reports whether (workspaceID, slug) is taken.
func (s *Store) DeeplinkExists(ctx context.Context, workspaceID, slug string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, qDeeplinkExists, workspaceID, slug); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// InsertDeeplink writes dl.  A taken slug yields ErrDuplicate.
func (s *Store) InsertDeeplink(ctx context.Context, dl *model.Deeplink) error {
	_, err := s.db.ExecContext(ctx, qInsertDeeplink,
		dl.WorkspaceID, dl.Slug, dl.ShortCode, dl.IsRandomSlug, dl.AppParams,
		dl.AndroidParameters, dl.IOSParameters, dl.SocialMeta, dl.Source,
		dl.CreatedAt, dl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deeplink: %w", translate(err))
	}
	return nil
}

// ListDeeplinks returns up to limit links, newest first.  An empty source
// lists every source.
func (s *Store) ListDeeplinks(ctx context.Context, workspaceID string, source model.Source, limit int) ([]model.Deeplink, error) {
	var (
		out []model.Deeplink
		err error
	)
	if source == "" {
		err = s.db.SelectContext(ctx, &out, qListDeeplinks, workspaceID, limit)
	} else {
		err = s.db.SelectContext(ctx, &out, qListDeeplinksBySource, workspaceID, source, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list deeplinks: %w", err)
	}
	return out, nil
}

// IncrementClick counts one visit on the link and on the workspace's
// monthly counter.  Both statements run; their errors are joined.
func (s *Store) IncrementClick(ctx context.Context, workspaceID, slug string) error {
	var errs []error
	if _, err := s.db.ExecContext(ctx, qIncrementDeeplinkClick, workspaceID, slug); err != nil {
		errs = append(errs, fmt.Errorf("increment link clicks: %w", err))
	}
	if _, err := s.db.ExecContext(ctx, qIncrementWorkspaceClick, workspaceID); err != nil {
		errs = append(errs, fmt.Errorf("increment workspace clicks: %w", err))
	}
	return errors.Join(errs...)
}

// WorkspaceStats aggregates link and click totals.
func (s *Store) WorkspaceStats(ctx context.Context, workspaceID string) (model.Stats, error) {
	var st model.Stats
	if err := s.db.GetContext(ctx, &st, qStats, workspaceID); err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
