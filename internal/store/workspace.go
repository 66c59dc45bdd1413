package store

import (
	"context"
	"fmt"
	"time"

	"github.com/yanizio/depl/internal/model"
)

const workspaceCols = `id, name, description, sub_domain, api_key, client_key,
	current_monthly_create_count, current_monthly_click_count,
	next_quota_update_at, created_at`

var (
	qWorkspaceBySubdomain = `SELECT ` + workspaceCols + ` FROM workspaces WHERE sub_domain = ? LIMIT 1`
	qWorkspaceByAPIKey    = `SELECT ` + workspaceCols + ` FROM workspaces WHERE api_key = ? LIMIT 1`
	qWorkspaceByClientKey = `SELECT ` + workspaceCols + ` FROM workspaces WHERE client_key = ? LIMIT 1`
)

const (
	qSubdomainTaken = `SELECT COUNT(*) FROM workspaces WHERE sub_domain = ?`

	qInsertWorkspace = `INSERT INTO workspaces
		(id, name, description, sub_domain, api_key, client_key, next_quota_update_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	qIncrementCreateCount = `UPDATE workspaces
		SET current_monthly_create_count = current_monthly_create_count + 1
		WHERE id = ?`

	qResetQuotas = `UPDATE workspaces
		SET current_monthly_create_count = 0,
		    current_monthly_click_count = 0,
		    next_quota_update_at = ?
		WHERE next_quota_update_at IS NULL OR next_quota_update_at <= ?`
)

// WorkspaceBySubdomain loads the workspace that owns sub.
func (s *Store) WorkspaceBySubdomain(ctx context.Context, sub string) (*model.Workspace, error) {
	return s.getWorkspace(ctx, qWorkspaceBySubdomain, sub)
}

// WorkspaceByAPIKey loads the workspace whose api_key equals key.
func (s *Store) WorkspaceByAPIKey(ctx context.Context, key string) (*model.Workspace, error) {
	return s.getWorkspace(ctx, qWorkspaceByAPIKey, key)
}

// WorkspaceByClientKey loads the workspace whose client_key equals key.
func (s *Store) WorkspaceByClientKey(ctx context.Context, key string) (*model.Workspace, error) {
	return s.getWorkspace(ctx, qWorkspaceByClientKey, key)
}

func (s *Store) getWorkspace(ctx context.Context, q, arg string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := s.db.GetContext(ctx, &ws, q, arg); err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

// SubdomainTaken reports whether any workspace already owns sub.
func (s *Store) SubdomainTaken(ctx context.Context, sub string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, qSubdomainTaken, sub); err != nil {
		return false, fmt.Errorf("count subdomain: %w", err)
	}
	return n > 0, nil
}

// InsertWorkspace writes ws.  A taken subdomain or key yields ErrDuplicate.
func (s *Store) InsertWorkspace(ctx context.Context, ws *model.Workspace) error {
	_, err := s.db.ExecContext(ctx, qInsertWorkspace,
		ws.ID, ws.Name, ws.Description, ws.SubDomain,
		ws.APIKey, ws.ClientKey, ws.NextQuotaUpdateAt, ws.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", translate(err))
	}
	return nil
}

// IncrementCreateCount bumps the monthly create counter.
func (s *Store) IncrementCreateCount(ctx context.Context, workspaceID string) error {
	if _, err := s.db.ExecContext(ctx, qIncrementCreateCount, workspaceID); err != nil {
		return fmt.Errorf("increment create count: %w", err)
	}
	return nil
}

// ResetQuotas zeroes the monthly counters of every workspace whose quota
// window has closed at now, and moves the window to next.
func (s *Store) ResetQuotas(ctx context.Context, now, next time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, qResetQuotas, next, now)
	if err != nil {
		return 0, fmt.Errorf("reset quotas: %w", err)
	}
	return res.RowsAffected()
}
