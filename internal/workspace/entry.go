package workspace

import "github.com/yanizio/depl/internal/model"

// entry is one cached workspace plus the UnixNano of its last hit, read by
// the evictor for idle and LRU decisions.
type entry struct {
	ws       *model.Workspace
	lastSeen int64
}
