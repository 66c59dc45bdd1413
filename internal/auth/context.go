// internal/auth/context.go
//
// Authenticated-workspace helper.
//
// Usage
// -----
//
//	// Attach the workspace after the bearer key checks out.
//	ctx = auth.WithWorkspace(ctx, ws)
//
//	// Downstream handlers retrieve it.
//	ws, ok := auth.Workspace(ctx)
//
// Notes
// -----
// • The stored pointer is shared; handlers treat it as read-only.
package auth

import (
	"context"

	"github.com/yanizio/depl/internal/model"
)

// workspaceKey is unexported to avoid context-key collisions.
type workspaceKey struct{}

// WithWorkspace returns a new context carrying ws.
func WithWorkspace(ctx context.Context, ws *model.Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey{}, ws)
}

// Workspace extracts the authenticated workspace.  It returns (nil, false)
// when the request never passed the key check.
func Workspace(ctx context.Context) (*model.Workspace, bool) {
	ws, ok := ctx.Value(workspaceKey{}).(*model.Workspace)
	return ws, ok && ws != nil
}
