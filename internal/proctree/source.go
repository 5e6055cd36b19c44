package proctree

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrNotFound means the process no longer exists. During a tree walk this is
// expected and the process is silently dropped.
var ErrNotFound = errors.New("process not found")

// Stat is the raw, point-in-time reading of a single process.
type Stat struct {
	PPID        int32
	Command     string
	CPUSeconds  float64 // cumulative user+system time
	MemoryBytes uint64  // resident set size
	// CreateTime tells a recycled pid from the process it replaced.
	// Milliseconds since the epoch, 0 when unknown.
	CreateTime int64
}

// Source reads the system process table.
type Source interface {
	// Stat reads one process. Returns ErrNotFound if it is gone.
	Stat(ctx context.Context, pid int32) (Stat, error)
	// Table lists every process with its parent in one pass.
	Table(ctx context.Context) (Table, error)
}

// SystemSource is the default Source backed by gopsutil.
type SystemSource struct{}

// NewSystemSource returns a Source that reads the local process table.
func NewSystemSource() *SystemSource {
	return &SystemSource{}
}

// Stat reads ppid, command line, cpu times and RSS for pid.
func (SystemSource) Stat(ctx context.Context, pid int32) (Stat, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Stat{}, mapError(err)
	}

	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return Stat{}, mapError(err)
	}

	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Stat{}, mapError(err)
	}

	// Ppid failing after Times succeeded means the process just exited.
	ppid, err := p.PpidWithContext(ctx)
	if err != nil {
		return Stat{}, mapError(err)
	}

	// Unknown create time only disables pid reuse detection.
	created, _ := p.CreateTimeWithContext(ctx)

	return Stat{
		PPID:        ppid,
		Command:     commandLine(ctx, p),
		CPUSeconds:  times.User + times.System,
		MemoryBytes: mem.RSS,
		CreateTime:  created,
	}, nil
}

// Table reads the ppid of every process. Processes that exit during the
// scan are left out.
func (SystemSource) Table(ctx context.Context) (Table, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	parents := make(map[int32]int32, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		parents[p.Pid] = ppid
	}
	return NewTable(parents), nil
}

// commandLine renders argv with the executable reduced to its base name,
// falling back to the process name for kernel threads and zombies.
func commandLine(ctx context.Context, p *process.Process) string {
	argv, err := p.CmdlineSliceWithContext(ctx)
	if err == nil && len(argv) > 0 && argv[0] != "" {
		return FormatCommand(argv)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return "<unknown>"
	}
	return name
}

// FormatCommand joins argv, shortening the executable path to its base name.
func FormatCommand(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	exe := filepath.Base(argv[0])
	if len(argv) == 1 {
		return exe
	}
	return exe + " " + strings.Join(argv[1:], " ")
}

func mapError(err error) error {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ESRCH):
		return ErrNotFound
	}
	return err
}
