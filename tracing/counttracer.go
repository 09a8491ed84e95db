package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/a8xio/sim/hooking"
)

// CountTracer counts hook invocations by position name.
type CountTracer struct {
	lock   sync.Mutex
	counts map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{counts: make(map[string]uint64)}
}

// Func counts the invocation.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos == nil {
		return
	}

	t.lock.Lock()
	t.counts[ctx.Pos.Name]++
	t.lock.Unlock()
}

// Count returns how many times the position was hit.
func (t *CountTracer) Count(pos *hooking.HookPos) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[pos.Name]
}

// Names returns the position names seen so far, sorted.
func (t *CountTracer) Names() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, 0, len(t.counts))
	for n := range t.counts {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}
