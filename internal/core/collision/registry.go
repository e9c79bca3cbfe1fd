package collision

import (
	"sync/atomic"

	"github.com/zeusync/fpnav/internal/core/observability/log"
)

// Registry is the append-only list of obstacles probes are tested against.
//
// Appends publish a fresh slice through an atomic pointer, so a concurrent
// reader sees either the old list or the new one with the entry fully built.
// Entries are never deduplicated.
type Registry struct {
	obstacles atomic.Pointer[[]Obstacle]
	logger    log.Log
}

func NewRegistry(logger log.Log) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	r := &Registry{logger: logger}
	empty := make([]Obstacle, 0)
	r.obstacles.Store(&empty)
	return r
}

// Register appends o. A nil obstacle is ignored and reported as false.
func (r *Registry) Register(o Obstacle) bool {
	if o == nil {
		return false
	}
	for {
		cur := r.obstacles.Load()
		next := make([]Obstacle, len(*cur), len(*cur)+1)
		copy(next, *cur)
		next = append(next, o)
		if r.obstacles.CompareAndSwap(cur, &next) {
			r.logger.Info("obstacle registered",
				log.String("id", o.ID()),
				log.String("name", o.Name()),
				log.Int("count", len(next)),
			)
			return true
		}
	}
}

// Snapshot returns the current list. It must be treated as read-only.
func (r *Registry) Snapshot() []Obstacle {
	return *r.obstacles.Load()
}

func (r *Registry) Len() int {
	return len(*r.obstacles.Load())
}
