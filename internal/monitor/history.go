package monitor

import (
	"sync"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
)

// DefaultHistorySize is the default number of samples kept per group.
const DefaultHistorySize = 60

// History keeps recent CPU readings per group for trend sparklines.
// Groups are keyed by scope (the overview, or one session) and group id, so
// switching views does not mix windows of different sessions.
type History struct {
	mu     sync.RWMutex
	size   int
	groups map[historyKey]*ringBuffer
}

type historyKey struct {
	scope string
	id    string
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history keeping size samples per group.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:   size,
		groups: make(map[historyKey]*ringBuffer),
	}
}

// scopeOf names the view a snapshot belongs to.
func scopeOf(snap *aggregate.Snapshot) string {
	if snap.Mode == aggregate.ModeSessions {
		return "\x00sessions"
	}
	return snap.Session
}

// Push records every group's CPU total from snap and forgets groups of the
// same scope that are no longer present.
func (h *History) Push(snap *aggregate.Snapshot) {
	if snap == nil {
		return
	}
	scope := scopeOf(snap)

	h.mu.Lock()
	defer h.mu.Unlock()

	present := make(map[string]struct{}, len(snap.Groups))
	for _, g := range snap.Groups {
		present[g.ID] = struct{}{}
		key := historyKey{scope: scope, id: g.ID}
		buf, ok := h.groups[key]
		if !ok {
			buf = newRingBuffer(h.size)
			h.groups[key] = buf
		}
		buf.push(snap.CPUShare(g.Totals.CPUPercent))
	}

	for key := range h.groups {
		if key.scope != scope {
			continue
		}
		if _, ok := present[key.id]; !ok {
			delete(h.groups, key)
		}
	}
}

// CPU returns up to count recent readings for group id of snap's scope,
// oldest first.
func (h *History) CPU(snap *aggregate.Snapshot, id string, count int) []float64 {
	if h == nil || snap == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.groups[historyKey{scope: scopeOf(snap), id: id}]
	if !ok {
		return nil
	}
	return buf.getLast(count)
}

// Len returns the number of groups tracked.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// newRingBuffer creates a new ring buffer with the specified capacity.
func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

// push adds a value to the ring buffer.
func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	// head is the next write position.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
