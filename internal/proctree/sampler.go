package proctree

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/logger"
)

// CPUMode selects how CPU percentages are normalized.
type CPUMode string

const (
	// CPUPerCore reports 100% for one fully busy core (the top convention).
	// A multi-threaded process can exceed 100%.
	CPUPerCore CPUMode = "per-core"
	// CPUAggregate divides by the logical CPU count so 100% is the whole machine.
	CPUAggregate CPUMode = "aggregate"
)

// minSampleGap is the shortest wall-clock gap that produces a fresh CPU reading.
// Closer samples reuse the previous percentage instead of dividing by ~0.
const minSampleGap = 100 * time.Millisecond

type baseline struct {
	created int64
	at      time.Time
	cpu     float64
	percent float64
}

// Sampler walks process trees and computes per-process CPU usage from
// deltas between successive samples. Safe for concurrent use.
type Sampler struct {
	source Source
	mode   CPUMode
	numCPU int
	now    func() time.Time
	log    logger.Logger

	mu        sync.Mutex
	baselines map[int32]baseline
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithCPUMode sets the CPU normalization mode.
func WithCPUMode(mode CPUMode) Option {
	return func(s *Sampler) {
		if mode == CPUAggregate {
			s.mode = CPUAggregate
		}
	}
}

// WithNumCPU overrides the logical CPU count used by CPUAggregate.
func WithNumCPU(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.numCPU = n
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sampler) {
		s.log = l
	}
}

// NewSampler creates a sampler reading from source.
func NewSampler(source Source, opts ...Option) *Sampler {
	s := &Sampler{
		source:    source,
		mode:      CPUPerCore,
		numCPU:    runtime.NumCPU(),
		now:       time.Now,
		log:       logger.Noop(),
		baselines: make(map[int32]baseline),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the CPU normalization mode in effect.
func (s *Sampler) Mode() CPUMode {
	return s.mode
}

// Table reads the process table once. Pass it to SampleTable for every
// root sampled in the same cycle.
func (s *Sampler) Table(ctx context.Context) (Table, error) {
	table, err := s.source.Table(ctx)
	if err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}
	return table, nil
}

// Sample reads the process table and walks the descendant tree of root.
func (s *Sampler) Sample(ctx context.Context, root int32) (*ProcessNode, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return s.SampleTable(ctx, table, root)
}

// SampleTable walks the descendant tree of root using table for parent links.
// Processes that vanish mid-walk are omitted. Returns ErrNotFound if root
// itself no longer exists. table is only read, so concurrent walks may share it.
func (s *Sampler) SampleTable(ctx context.Context, table Table, root int32) (*ProcessNode, error) {
	visited := make(map[int32]struct{})
	return s.walk(ctx, table, root, visited)
}

func (s *Sampler) walk(ctx context.Context, table Table, pid int32, visited map[int32]struct{}) (*ProcessNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, seen := visited[pid]; seen {
		return nil, ErrNotFound
	}
	visited[pid] = struct{}{}

	st, err := s.source.Stat(ctx, pid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read pid %d: %w", pid, err)
	}

	node := &ProcessNode{
		ProcessInfo: ProcessInfo{
			PID:         pid,
			PPID:        st.PPID,
			Command:     st.Command,
			CPUPercent:  s.cpuPercent(pid, st.CreateTime, st.CPUSeconds, s.now()),
			MemoryBytes: st.MemoryBytes,
		},
	}

	for _, child := range table.Children(pid) {
		c, err := s.walk(ctx, table, child, visited)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Vanished or unreadable descendants are dropped.
			s.log.Debug("skip pid %d: %v", child, err)
			continue
		}
		node.Children = append(node.Children, c)
	}
	sortChildren(node.Children)

	return node, nil
}

// cpuPercent returns the CPU usage of pid since its previous sample and
// records the new baseline. The first observation of a process yields 0,
// including a new process that reuses a pid seen before.
func (s *Sampler) cpuPercent(pid int32, created int64, cpuSeconds float64, at time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.baselines[pid]
	if !ok || prev.created != created {
		s.baselines[pid] = baseline{created: created, at: at, cpu: cpuSeconds}
		return 0
	}

	elapsed := at.Sub(prev.at)
	if elapsed < minSampleGap {
		return prev.percent
	}

	delta := cpuSeconds - prev.cpu
	if delta < 0 {
		// pid reused and the create time was unavailable
		s.baselines[pid] = baseline{created: created, at: at, cpu: cpuSeconds}
		return 0
	}

	percent := delta / elapsed.Seconds() * 100
	if s.mode == CPUAggregate && s.numCPU > 0 {
		percent /= float64(s.numCPU)
	}

	s.baselines[pid] = baseline{created: created, at: at, cpu: cpuSeconds, percent: percent}
	return percent
}

// Prune forgets baselines for pids not in seen, so a recycled pid starts
// from a fresh first observation.
func (s *Sampler) Prune(seen map[int32]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid := range s.baselines {
		if _, ok := seen[pid]; !ok {
			delete(s.baselines, pid)
		}
	}
}

// Tracked returns how many pids currently have a CPU baseline.
func (s *Sampler) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.baselines)
}
