package proctree_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/proctree"
	fakes "github.com/rileyhilliard/tmuxmon/internal/proctree/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSampler_FirstSampleIsZero(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "bash", 42.0, 1024)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now))

	node, err := s.Sample(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 0.0, node.CPUPercent, "first observation must not spike")
	assert.Equal(t, uint64(1024), node.MemoryBytes)
}

func TestSampler_CPUDelta(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "bash", 10.0, 0)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now))
	ctx := context.Background()

	_, err := s.Sample(ctx, 100)
	require.NoError(t, err)

	// 1 CPU second over 2 wall seconds = 50%
	clock.Advance(2 * time.Second)
	src.AddCPU(100, 1.0)

	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, node.CPUPercent, 0.001)
}

func TestSampler_PerCoreCanExceedHundred(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "make -j8", 0, 0)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now), proctree.WithNumCPU(8))
	ctx := context.Background()

	_, _ = s.Sample(ctx, 100)
	clock.Advance(time.Second)
	src.AddCPU(100, 4.0)

	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, proctree.CPUPerCore, s.Mode())
	assert.InDelta(t, 400.0, node.CPUPercent, 0.001)
}

func TestSampler_AggregateMode(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "make -j8", 0, 0)
	clock := newClock()
	s := proctree.NewSampler(src,
		proctree.WithClock(clock.Now),
		proctree.WithCPUMode(proctree.CPUAggregate),
		proctree.WithNumCPU(8),
	)
	ctx := context.Background()

	_, _ = s.Sample(ctx, 100)
	clock.Advance(time.Second)
	src.AddCPU(100, 4.0)

	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, proctree.CPUAggregate, s.Mode())
	assert.InDelta(t, 50.0, node.CPUPercent, 0.001)
}

func TestSampler_TinyGapReusesLastPercent(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "bash", 0, 0)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now))
	ctx := context.Background()

	_, _ = s.Sample(ctx, 100)
	clock.Advance(time.Second)
	src.AddCPU(100, 0.25)
	node, _ := s.Sample(ctx, 100)
	require.InDelta(t, 25.0, node.CPUPercent, 0.001)

	// A forced refresh right after the last cycle must not divide by ~0.
	clock.Advance(5 * time.Millisecond)
	src.AddCPU(100, 0.01)
	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, node.CPUPercent, 0.001)
}

func TestSampler_CPUTimeGoingBackwardsResetsBaseline(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "old", 50.0, 0)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now))
	ctx := context.Background()

	_, _ = s.Sample(ctx, 100)
	clock.Advance(time.Second)
	src.Add(100, 1, "new", 0.1, 0) // same create time, cumulative time went backwards

	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, node.CPUPercent)
	assert.GreaterOrEqual(t, node.CPUPercent, 0.0)
}

func TestSampler_RecycledPidStartsAtZero(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "sleep 1", 2.0, 0)
	clock := newClock()
	s := proctree.NewSampler(src, proctree.WithClock(clock.Now))
	ctx := context.Background()

	_, _ = s.Sample(ctx, 100)
	clock.Advance(time.Second)
	// A new process got the pid and already has more CPU time than the old one.
	src.Respawn(100, "python train.py", 9.0)

	node, err := s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "python train.py", node.Command)
	assert.Equal(t, 0.0, node.CPUPercent, "new process must not inherit the old baseline")

	clock.Advance(time.Second)
	src.AddCPU(100, 0.5)
	node, err = s.Sample(ctx, 100)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, node.CPUPercent, 0.001)
}

func TestSampler_SampleTableSharesOneTable(t *testing.T) {
	src := fakes.NewFakeSource().
		Add(100, 1, "bash", 0, 0).
		Add(101, 100, "vim", 0, 0).
		Add(200, 1, "zsh", 0, 0).
		Add(201, 200, "make", 0, 0).
		Add(202, 201, "cc", 0, 0)
	s := proctree.NewSampler(src)
	ctx := context.Background()

	table, err := s.Table(ctx)
	require.NoError(t, err)

	a, err := s.SampleTable(ctx, table, 100)
	require.NoError(t, err)
	b, err := s.SampleTable(ctx, table, 200)
	require.NoError(t, err)

	assert.Equal(t, 2, a.Count())
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, 1, src.TableCalls)
	assert.Equal(t, 5, src.StatCalls)
}

func TestSampler_TableReadFailure(t *testing.T) {
	boom := errors.New("proc not mounted")
	src := fakes.NewFakeSource().Add(100, 1, "bash", 0, 0)
	src.Fail(boom)
	s := proctree.NewSampler(src)

	_, err := s.Table(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read process table")
}

func TestSampler_RootNotFound(t *testing.T) {
	src := fakes.NewFakeSource()
	s := proctree.NewSampler(src)

	node, err := s.Sample(context.Background(), 999)
	assert.Nil(t, node)
	assert.ErrorIs(t, err, proctree.ErrNotFound)
}

func TestSampler_SourceFailure(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "bash", 0, 0)
	boom := errors.New("permission denied")
	src.Fail(boom)
	s := proctree.NewSampler(src)

	_, err := s.Sample(context.Background(), 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, proctree.ErrNotFound))
}

func TestSampler_TreeShapeAndVanishingChild(t *testing.T) {
	src := fakes.NewFakeSource().
		Add(100, 1, "bash", 0, 100).
		Add(101, 100, "make", 0, 200).
		Add(102, 100, "sleep 10", 0, 300).
		Add(103, 101, "cc", 0, 400)
	src.VanishOnStat[102] = true
	s := proctree.NewSampler(src)

	root, err := s.Sample(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, root.Children, 1, "vanished child is omitted, not fatal")
	assert.Equal(t, int32(101), root.Children[0].PID)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, int32(103), root.Children[0].Children[0].PID)
	assert.Equal(t, int32(101), root.Children[0].Children[0].PPID)
	assert.Equal(t, 3, root.Count())
}

func TestSampler_CycleInTable(t *testing.T) {
	// An inconsistent table where 100 and 101 claim each other as parent.
	src := fakes.NewFakeSource().
		Add(100, 101, "a", 0, 0).
		Add(101, 100, "b", 0, 0)
	s := proctree.NewSampler(src)

	root, err := s.Sample(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, root.Count())
}

func TestSampler_ContextCancelled(t *testing.T) {
	src := fakes.NewFakeSource().Add(100, 1, "bash", 0, 0)
	s := proctree.NewSampler(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sample(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSampler_Prune(t *testing.T) {
	src := fakes.NewFakeSource().
		Add(100, 1, "bash", 0, 0).
		Add(101, 100, "vim", 0, 0)
	s := proctree.NewSampler(src)

	_, err := s.Sample(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Tracked())

	s.Prune(map[int32]struct{}{100: {}})
	assert.Equal(t, 1, s.Tracked())
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		argv   []string
		expect string
	}{
		{nil, ""},
		{[]string{"/usr/bin/vim"}, "vim"},
		{[]string{"/usr/local/bin/node", "server.js", "--port", "80"}, "node server.js --port 80"},
		{[]string{"bash"}, "bash"},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.expect, proctree.FormatCommand(tt.argv))
		})
	}
}
