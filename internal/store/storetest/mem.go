// Package storetest provides an in-memory stand-in for *store.Store so
// HTTP components can be exercised end to end without MySQL.  It honours
// the same sentinel errors (store.ErrNotFound, store.ErrDuplicate) and the
// same uniqueness keys as the real schema.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
)

// Mem is safe for concurrent use.  The zero value is not usable; call New.
type Mem struct {
	mu         sync.Mutex
	workspaces map[string]*model.Workspace // by id
	apps       map[string]*model.App       // by id
	links      map[string]*model.Deeplink  // by workspace_id + "/" + slug

	// ClickErr, when set, is returned by IncrementClick.
	ClickErr error
	clicks   chan string
}

// New returns an empty Mem.
func New() *Mem {
	return &Mem{
		workspaces: map[string]*model.Workspace{},
		apps:       map[string]*model.App{},
		links:      map[string]*model.Deeplink{},
		clicks:     make(chan string, 64),
	}
}

// Clicks delivers "workspace_id/slug" for every IncrementClick call.
func (m *Mem) Clicks() <-chan string { return m.clicks }

func linkKey(ws, slug string) string { return ws + "/" + slug }

/*──────────────────────────── workspaces ──────────────────────────────────*/

func (m *Mem) findWorkspace(match func(*model.Workspace) bool) (*model.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if match(ws) {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Mem) WorkspaceBySubdomain(_ context.Context, sub string) (*model.Workspace, error) {
	return m.findWorkspace(func(ws *model.Workspace) bool { return ws.SubDomain == sub })
}

func (m *Mem) WorkspaceByAPIKey(_ context.Context, key string) (*model.Workspace, error) {
	return m.findWorkspace(func(ws *model.Workspace) bool { return ws.APIKey == key })
}

func (m *Mem) WorkspaceByClientKey(_ context.Context, key string) (*model.Workspace, error) {
	return m.findWorkspace(func(ws *model.Workspace) bool { return ws.ClientKey == key })
}

func (m *Mem) SubdomainTaken(ctx context.Context, sub string) (bool, error) {
	_, err := m.WorkspaceBySubdomain(ctx, sub)
	return err == nil, nil
}

func (m *Mem) InsertWorkspace(_ context.Context, ws *model.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.workspaces {
		if o.ID == ws.ID || o.SubDomain == ws.SubDomain || o.APIKey == ws.APIKey || o.ClientKey == ws.ClientKey {
			return store.ErrDuplicate
		}
	}
	cp := *ws
	m.workspaces[ws.ID] = &cp
	return nil
}

func (m *Mem) IncrementCreateCount(_ context.Context, workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.workspaces[workspaceID]; ok {
		ws.MonthlyCreateCount++
	}
	return nil
}

func (m *Mem) ResetQuotas(_ context.Context, now, next time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, ws := range m.workspaces {
		if ws.NextQuotaUpdateAt == nil || !ws.NextQuotaUpdateAt.After(now) {
			ws.MonthlyCreateCount, ws.MonthlyClickCount = 0, 0
			nx := next
			ws.NextQuotaUpdateAt = &nx
			n++
		}
	}
	return n, nil
}

/*──────────────────────────── apps ────────────────────────────────────────*/

func (m *Mem) AppsByWorkspace(_ context.Context, workspaceID string) ([]model.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.App
	for _, a := range m.apps {
		if a.WorkspaceID == workspaceID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (m *Mem) AppByPlatform(_ context.Context, workspaceID string, p model.Platform) (*model.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.WorkspaceID == workspaceID && a.Platform == p {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Mem) CountApps(ctx context.Context, workspaceID string) (int, error) {
	apps, _ := m.AppsByWorkspace(ctx, workspaceID)
	return len(apps), nil
}

func (m *Mem) InsertApp(_ context.Context, app *model.App) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID == app.ID || (a.WorkspaceID == app.WorkspaceID && a.Platform == app.Platform) {
			return store.ErrDuplicate
		}
	}
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}

func (m *Mem) UpdateAppData(_ context.Context, appID string, data jsonobj.Object, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[appID]
	if !ok {
		return store.ErrNotFound
	}
	a.PlatformData = data
	a.UpdatedAt = now
	return nil
}

/*──────────────────────────── deep links ──────────────────────────────────*/

func (m *Mem) DeeplinkBySlug(_ context.Context, workspaceID, slug string) (*model.Deeplink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dl, ok := m.links[linkKey(workspaceID, slug)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *dl
	return &cp, nil
}

func (m *Mem) DeeplinkExists(_ context.Context, workspaceID, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.links[linkKey(workspaceID, slug)]
	return ok, nil
}

func (m *Mem) InsertDeeplink(_ context.Context, dl *model.Deeplink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := linkKey(dl.WorkspaceID, dl.Slug)
	if _, ok := m.links[k]; ok {
		return store.ErrDuplicate
	}
	cp := *dl
	m.links[k] = &cp
	return nil
}

func (m *Mem) ListDeeplinks(_ context.Context, workspaceID string, source model.Source, limit int) ([]model.Deeplink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Deeplink
	for _, dl := range m.links {
		if dl.WorkspaceID == workspaceID && (source == "" || dl.Source == source) {
			out = append(out, *dl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mem) IncrementClick(_ context.Context, workspaceID, slug string) error {
	m.mu.Lock()
	err := m.ClickErr
	if err == nil {
		if dl, ok := m.links[linkKey(workspaceID, slug)]; ok {
			dl.ClickCount++
		}
		if ws, ok := m.workspaces[workspaceID]; ok {
			ws.MonthlyClickCount++
		}
	}
	m.mu.Unlock()

	select {
	case m.clicks <- linkKey(workspaceID, slug):
	default:
	}
	return err
}

func (m *Mem) WorkspaceStats(_ context.Context, workspaceID string) (model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st model.Stats
	for _, dl := range m.links {
		if dl.WorkspaceID == workspaceID {
			st.TotalLinks++
			st.TotalClicks += dl.ClickCount
		}
	}
	return st, nil
}
