package aggregate

import (
	"context"
)

// OverviewAggregator aggregates whole sessions and attaches host-wide totals
// so each session can be compared with the machine as a whole.
type OverviewAggregator struct {
	agg *Aggregator
}

// NewOverview wraps agg for session-level snapshots. agg should carry a
// SystemSource; without one System stays nil.
func NewOverview(agg *Aggregator) *OverviewAggregator {
	return &OverviewAggregator{agg: agg}
}

// Aggregate builds a ModeSessions snapshot from one group per session.
// A failed host reading is logged and leaves System nil; it never fails the cycle.
func (o *OverviewAggregator) Aggregate(ctx context.Context, sessions []Group) (*Snapshot, error) {
	snap, err := o.agg.Aggregate(ctx, sessions)
	if err != nil {
		return nil, err
	}
	snap.Mode = ModeSessions

	if o.agg.system == nil {
		return snap, nil
	}
	sys, err := o.agg.system.Totals(ctx)
	if err != nil {
		o.agg.log.Warn("read system totals: %v", err)
		return snap, nil
	}
	if sys.MemoryTotalBytes > 0 {
		snap.MemoryTotal = sys.MemoryTotalBytes
	}
	snap.System = &sys
	return snap, nil
}
