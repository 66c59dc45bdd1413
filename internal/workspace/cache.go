// internal/workspace/cache.go
//
// Subdomain → workspace read-through cache.
//
// Context
// -------
// Redirect visits arrive on `<subdomain>.depl.link` and each needs the
// owning workspace before anything else happens.  Workspace rows are
// effectively immutable (the subdomain never changes and the keys are not
// rotated in-process), so the cache stores them until they go idle or the
// map grows past MaxEntries.  Deep links are never cached; a freshly
// created link must resolve on the very next visit.
//
// Concurrency
// -----------
//   - sync.Map for lock-free reads on the hot path.
//   - singleflight collapses a burst of first visits into one query.
//   - Unknown subdomains are not cached, so creating a workspace takes
//     effect immediately.
package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/depl/internal/metrics"
	"github.com/yanizio/depl/internal/model"
	"github.com/yanizio/depl/internal/store"
)

// Static defaults, overridden by the `cache` config section.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = 5 * time.Minute
)

// ErrNotFound is returned when no workspace owns the subdomain.
var ErrNotFound = errors.New("workspace not found")

// LoaderFunc fetches one workspace by subdomain.  It must return
// store.ErrNotFound for unknown subdomains.
type LoaderFunc func(ctx context.Context, sub string) (*model.Workspace, error)

// Cache lazily loads workspaces and evicts them on idle TTL or LRU pressure.
type Cache struct {
	load        LoaderFunc
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
	idleTTL     time.Duration
	maxEntries  int
	log         *zap.Logger
}

// NewCache constructs a Cache and starts the background evictor.  Zero
// idleTTL or maxEntries select the package defaults.
func NewCache(load LoaderFunc, idleTTL time.Duration, maxEntries int) *Cache {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = MaxEntries
	}
	c := &Cache{
		load:       load,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		log:        zap.L().Named("workspace.cache"),
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the workspace for sub, loading it on demand.
func (c *Cache) Get(ctx context.Context, sub string) (*model.Workspace, error) {
	if sub == "" {
		return nil, ErrNotFound
	}
	if ws, ok := c.lookup(sub); ok {
		return ws, nil
	}

	v, err, _ := c.sfg.Do(sub, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if ws, ok := c.lookup(sub); ok {
			return ws, nil
		}
		// Detached from the first caller's cancellation; every waiter
		// shares this load.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		ws, err := c.load(lctx, sub)
		if err != nil {
			metrics.WorkspaceLoadErrorsTotal.Inc()
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		c.m.Store(sub, &entry{ws: ws, lastSeen: time.Now().UnixNano()})
		metrics.WorkspaceLoadTotal.Inc()
		metrics.ActiveWorkspaces.Inc()
		c.log.Debug("workspace loaded", zap.String("sub_domain", sub), zap.String("workspace_id", ws.ID))
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Workspace), nil
}

// Known reports whether host maps to an existing workspace.  Used by
// ForceHTTPS so unknown hosts are left alone.
func (c *Cache) Known(ctx context.Context, host, linkDomain string) bool {
	_, err := c.Get(ctx, SubdomainFromHost(host, linkDomain))
	return err == nil
}

// Len reports the number of cached workspaces.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close stops the evictor.  Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.stop)
	})
}

func (c *Cache) lookup(sub string) (*model.Workspace, bool) {
	v, ok := c.m.Load(sub)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
	return ent.ws, true
}
