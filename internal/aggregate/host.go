package aggregate

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostSource reads machine-wide CPU and memory through gopsutil.
type HostSource struct{}

// NewHostSource returns a SystemSource for the local machine.
func NewHostSource() *HostSource {
	return &HostSource{}
}

// MemoryTotal returns installed RAM in bytes.
func (h *HostSource) MemoryTotal(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return vm.Total, nil
}

// Totals returns overall CPU utilisation since the previous call and current
// memory usage. The first call reports CPU since boot.
func (h *HostSource) Totals(ctx context.Context) (SystemTotals, error) {
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return SystemTotals{}, fmt.Errorf("cpu percent: %w", err)
	}
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return SystemTotals{}, fmt.Errorf("cpu count: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return SystemTotals{}, fmt.Errorf("virtual memory: %w", err)
	}

	var busy float64
	if len(pcts) > 0 {
		busy = pcts[0]
	}
	return SystemTotals{
		CPUPercent:       busy,
		CPUs:             cores,
		MemoryUsedBytes:  vm.Used,
		MemoryTotalBytes: vm.Total,
		MemoryPercent:    vm.UsedPercent,
	}, nil
}
