// evictor.go houses the eviction loop for Cache.  Every EvictInterval it
// scans the map and removes:
//
//   - workspaces idle longer than idleTTL
//   - least-recently-used workspaces when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package workspace

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/depl/internal/metrics"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.stop:
			return
		case <-c.evictTicker.C:
			c.evict(time.Now())
		}
	}
}

// evict runs one idle pass and one LRU pass as of now.
func (c *Cache) evict(now time.Time) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	c.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now.UnixNano() - atomic.LoadInt64(&ent.lastSeen))
		if idle > c.idleTTL {
			c.m.Delete(key)
			c.log.Info("workspace evicted", zap.Any("sub_domain", key), zap.Duration("idle", idle.Truncate(time.Second)))
			metrics.WorkspaceEvictTotal.Inc()
			metrics.ActiveWorkspaces.Dec()
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if c.maxEntries <= 0 || count <= c.maxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
	}
	all := make([]kv, 0, count)
	c.m.Range(func(key, value any) bool {
		all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&value.(*entry).lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-c.maxEntries; i++ {
		if _, ok := c.m.LoadAndDelete(all[i].key); ok {
			c.log.Info("workspace evicted (LRU pressure)", zap.String("sub_domain", all[i].key))
			metrics.WorkspaceEvictTotal.Inc()
			metrics.ActiveWorkspaces.Dec()
		}
	}
}
