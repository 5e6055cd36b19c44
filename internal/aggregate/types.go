package aggregate

import (
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// Mode says what a snapshot's groups represent.
type Mode int

const (
	// ModeWindows groups processes by the windows of one session.
	ModeWindows Mode = iota
	// ModeSessions groups processes by session (overview mode).
	ModeSessions
)

// String returns a human-readable label for the mode.
func (m Mode) String() string {
	switch m {
	case ModeWindows:
		return "windows"
	case ModeSessions:
		return "sessions"
	default:
		return "unknown"
	}
}

// Group is one logical bucket as reported by the group-root resolver:
// a window (roots are its pane pids) or a session (roots are all its pane pids).
type Group struct {
	ID      string
	Label   string
	Windows int // windows in a session; 0 for window groups
	Roots   []int32
}

// Totals are summed resource figures.
type Totals struct {
	CPUPercent  float64
	MemoryBytes uint64
	Processes   int
}

// Add accumulates other into t.
func (t *Totals) Add(other Totals) {
	t.CPUPercent += other.CPUPercent
	t.MemoryBytes += other.MemoryBytes
	t.Processes += other.Processes
}

// GroupView is one group in a snapshot.
type GroupView struct {
	ID      string
	Label   string
	Windows int
	Panes   int // number of root pids the resolver reported
	Forest  []*proctree.ProcessNode
	Totals  Totals
}

// Rows returns the group's forest flattened in pre-order.
func (g GroupView) Rows() []proctree.Row {
	return proctree.Flatten(g.Forest)
}

// SystemTotals are whole-machine readings used for relative comparison in
// overview mode. CPUPercent is always 0-100 of total machine capacity.
type SystemTotals struct {
	CPUPercent       float64
	CPUs             int
	MemoryUsedBytes  uint64
	MemoryTotalBytes uint64
	MemoryPercent    float64
}

// Snapshot is one complete, immutable aggregation result. Nothing may modify
// a Snapshot after the aggregator returns it.
type Snapshot struct {
	Timestamp   time.Time
	Mode        Mode
	Session     string // session the windows belong to, ModeWindows only
	CPUMode     proctree.CPUMode
	Groups      []GroupView
	System      *SystemTotals // overview mode only; nil if unavailable
	MemoryTotal uint64        // host RAM, 0 if unknown
}

// Group returns the index of the group with the given id.
func (s *Snapshot) Group(id string) (int, bool) {
	if s == nil {
		return 0, false
	}
	for i, g := range s.Groups {
		if g.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Totals sums all groups in the snapshot.
func (s *Snapshot) Totals() Totals {
	var t Totals
	if s == nil {
		return t
	}
	for _, g := range s.Groups {
		t.Add(g.Totals)
	}
	return t
}

// MemoryShare returns bytes as a percentage of host RAM, or 0 if unknown.
func (s *Snapshot) MemoryShare(bytes uint64) float64 {
	if s == nil || s.MemoryTotal == 0 {
		return 0
	}
	return float64(bytes) * 100 / float64(s.MemoryTotal)
}

// CPUShare converts a summed process CPU figure into a percentage of whole
// machine capacity, so it can be compared with System.CPUPercent.
func (s *Snapshot) CPUShare(cpu float64) float64 {
	if s == nil {
		return 0
	}
	if s.CPUMode == proctree.CPUAggregate {
		return cpu
	}
	if s.System == nil || s.System.CPUs <= 0 {
		return cpu
	}
	return cpu / float64(s.System.CPUs)
}

// sumForest totals every node in the forest.
func sumForest(forest []*proctree.ProcessNode) Totals {
	var t Totals
	for _, root := range forest {
		root.Walk(func(n *proctree.ProcessNode, _ int) bool {
			t.CPUPercent += n.CPUPercent
			t.MemoryBytes += n.MemoryBytes
			t.Processes++
			return true
		})
	}
	return t
}
