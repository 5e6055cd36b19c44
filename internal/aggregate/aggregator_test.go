package aggregate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/proctree"
	fakes "github.com/rileyhilliard/tmuxmon/internal/proctree/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSampler returns canned trees keyed by root pid.
type stubSampler struct {
	mu     sync.Mutex
	trees  map[int32]*proctree.ProcessNode
	errs   map[int32]error
	pruned map[int32]struct{}

	tableErr   error
	tableReads int
}

func newStubSampler() *stubSampler {
	return &stubSampler{
		trees: make(map[int32]*proctree.ProcessNode),
		errs:  make(map[int32]error),
	}
}

func (s *stubSampler) Table(context.Context) (proctree.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableReads++
	return proctree.Table{}, s.tableErr
}

func (s *stubSampler) SampleTable(_ context.Context, _ proctree.Table, root int32) (*proctree.ProcessNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[root]; ok {
		return nil, err
	}
	if n, ok := s.trees[root]; ok {
		return n, nil
	}
	return nil, proctree.ErrNotFound
}

func (s *stubSampler) Prune(seen map[int32]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruned = seen
}

func (s *stubSampler) Mode() proctree.CPUMode { return proctree.CPUPerCore }

func proc(pid int32, cpu float64, mem uint64, children ...*proctree.ProcessNode) *proctree.ProcessNode {
	return &proctree.ProcessNode{
		ProcessInfo: proctree.ProcessInfo{PID: pid, Command: "cmd", CPUPercent: cpu, MemoryBytes: mem},
		Children:    children,
	}
}

type stubHost struct {
	total   uint64
	totals  aggregate.SystemTotals
	err     error
	memHits int
}

func (h *stubHost) MemoryTotal(context.Context) (uint64, error) {
	h.memHits++
	return h.total, h.err
}

func (h *stubHost) Totals(context.Context) (aggregate.SystemTotals, error) {
	return h.totals, h.err
}

func TestAggregate_TotalsSumTree(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 0, 1000, proc(101, 5, 2000), proc(102, 3, 3000))
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Label: "editor", Roots: []int32{100}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Groups, 1)

	g := snap.Groups[0]
	assert.InDelta(t, 8.0, g.Totals.CPUPercent, 0.0001)
	assert.Equal(t, uint64(6000), g.Totals.MemoryBytes)
	assert.Equal(t, 3, g.Totals.Processes)
	assert.Equal(t, 1, g.Panes)
	assert.Equal(t, aggregate.ModeWindows, snap.Mode)
}

func TestAggregate_MultiplePanesPerWindow(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 1, 10)
	s.trees[200] = proc(200, 2, 20, proc(201, 4, 40))
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "1", Roots: []int32{100, 200}},
	})
	require.NoError(t, err)

	g := snap.Groups[0]
	require.Len(t, g.Forest, 2)
	assert.Equal(t, int32(100), g.Forest[0].PID)
	assert.InDelta(t, 7.0, g.Totals.CPUPercent, 0.0001)
	assert.Equal(t, uint64(70), g.Totals.MemoryBytes)
	assert.Len(t, g.Rows(), 3)
	assert.Equal(t, "1", g.Label, "label falls back to id")
}

func TestAggregate_StableNaturalOrder(t *testing.T) {
	s := newStubSampler()
	for _, pid := range []int32{1, 2, 3, 4} {
		s.trees[pid] = proc(pid, 0, 0)
	}
	a := aggregate.New(s)
	groups := []aggregate.Group{
		{ID: "10", Roots: []int32{1}},
		{ID: "2", Roots: []int32{2}},
		{ID: "work", Roots: []int32{3}},
		{ID: "0", Roots: []int32{4}},
	}

	for i := 0; i < 3; i++ {
		snap, err := a.Aggregate(context.Background(), groups)
		require.NoError(t, err)

		var ids []string
		for _, g := range snap.Groups {
			ids = append(ids, g.ID)
		}
		assert.Equal(t, []string{"0", "2", "10", "work"}, ids)
	}
}

func TestAggregate_DuplicateIDsMerged(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 1, 0)
	s.trees[200] = proc(200, 2, 0)
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "1", Label: "first", Roots: []int32{100}},
		{ID: "1", Label: "second", Roots: []int32{200, 100}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Groups, 1)
	assert.Equal(t, "first", snap.Groups[0].Label)
	assert.Equal(t, 2, snap.Groups[0].Panes)
	assert.InDelta(t, 3.0, snap.Groups[0].Totals.CPUPercent, 0.0001)
}

func TestAggregate_GoneRootsKeepGroup(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 1, 0)
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Roots: []int32{100}},
		{ID: "1", Roots: []int32{999}},
	})
	require.NoError(t, err)
	require.Len(t, snap.Groups, 2)
	assert.Empty(t, snap.Groups[1].Forest)
	assert.Equal(t, aggregate.Totals{}, snap.Groups[1].Totals)
}

func TestAggregate_AllRootsGoneIsNotAnError(t *testing.T) {
	a := aggregate.New(newStubSampler())

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Roots: []int32{999}},
	})
	require.NoError(t, err)
	assert.Len(t, snap.Groups, 1)
}

func TestAggregate_SourceUnavailable(t *testing.T) {
	s := newStubSampler()
	s.errs[100] = errors.New("proc not mounted")
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Roots: []int32{100}},
	})
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.True(t, tmerrors.IsCode(err, tmerrors.ErrSource))
}

func TestAggregate_TableReadFailure(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 0, 0)
	s.tableErr = errors.New("proc not mounted")
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Roots: []int32{100}},
	})
	assert.Nil(t, snap)
	require.Error(t, err)
	assert.True(t, tmerrors.IsCode(err, tmerrors.ErrSource))
}

func TestAggregate_NoTableReadWithoutRoots(t *testing.T) {
	s := newStubSampler()
	a := aggregate.New(s)

	_, err := a.Aggregate(context.Background(), []aggregate.Group{{ID: "0"}})
	require.NoError(t, err)
	assert.Zero(t, s.tableReads)
}

func TestAggregate_PartialFailureStillSnapshots(t *testing.T) {
	s := newStubSampler()
	s.errs[100] = errors.New("permission denied")
	s.trees[200] = proc(200, 1, 0)
	a := aggregate.New(s)

	snap, err := a.Aggregate(context.Background(), []aggregate.Group{
		{ID: "0", Roots: []int32{100}},
		{ID: "1", Roots: []int32{200}},
	})
	require.NoError(t, err)
	assert.Empty(t, snap.Groups[0].Forest)
	assert.Len(t, snap.Groups[1].Forest, 1)
}

func TestAggregate_EmptyInput(t *testing.T) {
	a := aggregate.New(newStubSampler())

	snap, err := a.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Groups)
}

func TestAggregate_PrunesToSeenPids(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 0, 0, proc(101, 0, 0))
	a := aggregate.New(s)

	_, err := a.Aggregate(context.Background(), []aggregate.Group{{ID: "0", Roots: []int32{100}}})
	require.NoError(t, err)
	assert.Len(t, s.pruned, 2)
	assert.Contains(t, s.pruned, int32(101))
}

func TestAggregate_CancelledContext(t *testing.T) {
	s := newStubSampler()
	s.trees[100] = proc(100, 0, 0)
	a := aggregate.New(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Aggregate(ctx, []aggregate.Group{{ID: "0", Roots: []int32{100}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_MemoryTotalReadOnce(t *testing.T) {
	s := newStubSampler()
	host := &stubHost{total: 16 << 30}
	a := aggregate.New(s, aggregate.WithSystemSource(host))

	for i := 0; i < 3; i++ {
		snap, err := a.Aggregate(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(16<<30), snap.MemoryTotal)
	}
	assert.Equal(t, 1, host.memHits)
}

func TestAggregate_Timestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := aggregate.New(newStubSampler(), aggregate.WithClock(func() time.Time { return at }))

	snap, err := a.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, at, snap.Timestamp)
}

// End to end with the real sampler over a fake process table.
func TestAggregate_WithSampler(t *testing.T) {
	src := fakes.NewFakeSource().
		Add(100, 1, "bash", 0, 1<<20).
		Add(101, 100, "python train.py", 0, 4<<20).
		Add(200, 1, "zsh", 0, 1<<20)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	a := aggregate.New(proctree.NewSampler(src, proctree.WithClock(clock)))
	groups := []aggregate.Group{
		{ID: "0", Label: "train", Roots: []int32{100}},
		{ID: "1", Label: "shell", Roots: []int32{200}},
	}

	_, err := a.Aggregate(context.Background(), groups)
	require.NoError(t, err)

	now = now.Add(time.Second)
	src.AddCPU(101, 0.5)
	snap, err := a.Aggregate(context.Background(), groups)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, snap.Groups[0].Totals.CPUPercent, 0.001)
	assert.Equal(t, uint64(5<<20), snap.Groups[0].Totals.MemoryBytes)
	assert.Equal(t, 0.0, snap.Groups[1].Totals.CPUPercent)
	assert.InDelta(t, 50.0, snap.Totals().CPUPercent, 0.001)
}

func TestAggregate_ReadsProcessTableOncePerCycle(t *testing.T) {
	src := fakes.NewFakeSource().
		Add(100, 1, "bash", 0, 0).
		Add(101, 100, "make", 0, 0).
		Add(102, 101, "cc", 0, 0).
		Add(200, 1, "zsh", 0, 0).
		Add(300, 1, "fish", 0, 0).
		Add(301, 300, "htop", 0, 0)
	a := aggregate.New(proctree.NewSampler(src))
	groups := []aggregate.Group{
		{ID: "0", Roots: []int32{100, 200}},
		{ID: "1", Roots: []int32{300}},
	}

	snap, err := a.Aggregate(context.Background(), groups)
	require.NoError(t, err)
	assert.Equal(t, 1, src.TableCalls)
	assert.Equal(t, 6, src.StatCalls, "one stat per process")
	assert.Equal(t, 4, snap.Groups[0].Totals.Processes)
	assert.Equal(t, 2, snap.Groups[1].Totals.Processes)

	_, err = a.Aggregate(context.Background(), groups)
	require.NoError(t, err)
	assert.Equal(t, 2, src.TableCalls)
}
