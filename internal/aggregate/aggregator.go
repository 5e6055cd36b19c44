package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/logger"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// DefaultConcurrency bounds how many root trees are walked in parallel.
const DefaultConcurrency = 8

// Sampler builds one process tree per root and keeps CPU baselines between calls.
// The process table is read once per Aggregate and shared by every root walk.
type Sampler interface {
	Table(ctx context.Context) (proctree.Table, error)
	SampleTable(ctx context.Context, table proctree.Table, root int32) (*proctree.ProcessNode, error)
	Prune(seen map[int32]struct{})
	Mode() proctree.CPUMode
}

// SystemSource reads whole-machine figures.
type SystemSource interface {
	MemoryTotal(ctx context.Context) (uint64, error)
	Totals(ctx context.Context) (SystemTotals, error)
}

// Aggregator turns resolved groups into a Snapshot: one process forest per
// group with summed totals.
type Aggregator struct {
	sampler Sampler
	system  SystemSource
	limit   int
	now     func() time.Time
	log     logger.Logger

	memOnce  sync.Once
	memTotal uint64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSystemSource sets the host-wide source. Without one, MemoryTotal is 0
// and overview snapshots carry no System figures.
func WithSystemSource(src SystemSource) Option {
	return func(a *Aggregator) {
		a.system = src
	}
}

// WithConcurrency limits parallel tree walks.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// New creates an aggregator backed by sampler.
func New(sampler Sampler, opts ...Option) *Aggregator {
	a := &Aggregator{
		sampler: sampler,
		limit:   DefaultConcurrency,
		now:     time.Now,
		log:     logger.Noop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type rootResult struct {
	node *proctree.ProcessNode
	err  error
}

// Aggregate reads the process table once, then samples every root of every
// group against it. Duplicate group ids are merged and groups come back
// sorted by id. A root that no longer exists is skipped; a group whose roots
// are all gone still appears with empty totals. If the table cannot be read,
// or every root failed for a reason other than disappearing, the source is
// considered unavailable and a SOURCE error is returned.
func (a *Aggregator) Aggregate(ctx context.Context, groups []Group) (*Snapshot, error) {
	merged := mergeGroups(groups)

	type job struct {
		group int
		root  int32
	}
	var jobs []job
	for gi, g := range merged {
		for _, r := range g.Roots {
			jobs = append(jobs, job{group: gi, root: r})
		}
	}

	var table proctree.Table
	if len(jobs) > 0 {
		var err error
		table, err = a.sampler.Table(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, tmerrors.SourceUnavailable(err)
		}
	}

	results := make([]rootResult, len(jobs))
	var eg errgroup.Group
	eg.SetLimit(a.limit)
	for i, j := range jobs {
		eg.Go(func() error {
			node, err := a.sampler.SampleTable(ctx, table, j.root)
			results[i] = rootResult{node: node, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failures int
	var firstErr error
	for i, res := range results {
		if res.err == nil || errors.Is(res.err, proctree.ErrNotFound) {
			continue
		}
		failures++
		if firstErr == nil {
			firstErr = res.err
		}
		a.log.Debug("sample root %d: %v", jobs[i].root, res.err)
	}
	if len(jobs) > 0 && failures == len(jobs) {
		return nil, tmerrors.SourceUnavailable(firstErr)
	}

	snap := &Snapshot{
		Timestamp:   a.now(),
		Mode:        ModeWindows,
		CPUMode:     a.sampler.Mode(),
		Groups:      make([]GroupView, len(merged)),
		MemoryTotal: a.memoryTotal(ctx),
	}
	for gi, g := range merged {
		snap.Groups[gi] = GroupView{
			ID:      g.ID,
			Label:   g.Label,
			Windows: g.Windows,
			Panes:   len(g.Roots),
		}
	}

	seen := make(map[int32]struct{})
	for i, res := range results {
		if res.node == nil {
			continue
		}
		gv := &snap.Groups[jobs[i].group]
		gv.Forest = append(gv.Forest, res.node)
		res.node.PIDs(seen)
	}
	for gi := range snap.Groups {
		snap.Groups[gi].Totals = sumForest(snap.Groups[gi].Forest)
	}

	a.sampler.Prune(seen)
	return snap, nil
}

// memoryTotal reads host RAM once; it does not change while we run.
func (a *Aggregator) memoryTotal(ctx context.Context) uint64 {
	if a.system == nil {
		return 0
	}
	a.memOnce.Do(func() {
		total, err := a.system.MemoryTotal(ctx)
		if err != nil {
			a.log.Warn("read host memory: %v", err)
			return
		}
		a.memTotal = total
	})
	return a.memTotal
}
