// Package testing provides test doubles for the proctree package.
package testing

import (
	"context"
	"sync"

	"github.com/rileyhilliard/tmuxmon/internal/proctree"
)

// FakeProcess is one entry in a FakeSource process table.
type FakeProcess struct {
	PID        int32
	PPID       int32
	Command    string
	CPUSeconds float64
	RSS        uint64
	CreateTime int64
}

// FakeSource is an in-memory process table implementing proctree.Source.
type FakeSource struct {
	mu    sync.Mutex
	procs map[int32]*FakeProcess
	err   error

	// VanishOnStat removes a pid when it is read, simulating a process that
	// exits between the table scan and its Stat.
	VanishOnStat map[int32]bool

	created int64

	StatCalls  int
	TableCalls int
}

// NewFakeSource creates an empty fake process table.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		procs:        make(map[int32]*FakeProcess),
		VanishOnStat: make(map[int32]bool),
	}
}

// Add inserts a process or replaces the fields of an existing one. A
// replaced process keeps its create time; use Respawn for pid reuse.
func (f *FakeSource) Add(pid, ppid int32, command string, cpuSeconds float64, rss uint64) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := f.nextCreateTime()
	if old, ok := f.procs[pid]; ok {
		created = old.CreateTime
	}
	f.procs[pid] = &FakeProcess{PID: pid, PPID: ppid, Command: command, CPUSeconds: cpuSeconds, RSS: rss, CreateTime: created}
	return f
}

// Respawn replaces pid with a new process that reuses the pid.
func (f *FakeSource) Respawn(pid int32, command string, cpuSeconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		p.Command = command
		p.CPUSeconds = cpuSeconds
		p.CreateTime = f.nextCreateTime()
	}
}

func (f *FakeSource) nextCreateTime() int64 {
	f.created++
	return f.created
}

// Remove deletes a process, as if it exited.
func (f *FakeSource) Remove(pid int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.procs, pid)
}

// SetCPU sets the cumulative CPU seconds for pid.
func (f *FakeSource) SetCPU(pid int32, cpuSeconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		p.CPUSeconds = cpuSeconds
	}
}

// AddCPU advances the cumulative CPU seconds for pid.
func (f *FakeSource) AddCPU(pid int32, cpuSeconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		p.CPUSeconds += cpuSeconds
	}
}

// Fail makes every call return err. Pass nil to recover.
func (f *FakeSource) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Stat implements proctree.Source.
func (f *FakeSource) Stat(ctx context.Context, pid int32) (proctree.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatCalls++
	if f.err != nil {
		return proctree.Stat{}, f.err
	}
	if f.VanishOnStat[pid] {
		delete(f.procs, pid)
	}
	p, ok := f.procs[pid]
	if !ok {
		return proctree.Stat{}, proctree.ErrNotFound
	}
	return proctree.Stat{
		PPID:        p.PPID,
		Command:     p.Command,
		CPUSeconds:  p.CPUSeconds,
		MemoryBytes: p.RSS,
		CreateTime:  p.CreateTime,
	}, nil
}

// Table implements proctree.Source.
func (f *FakeSource) Table(ctx context.Context) (proctree.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TableCalls++
	if f.err != nil {
		return nil, f.err
	}
	parents := make(map[int32]int32, len(f.procs))
	for pid, p := range f.procs {
		parents[pid] = p.PPID
	}
	return proctree.NewTable(parents), nil
}
