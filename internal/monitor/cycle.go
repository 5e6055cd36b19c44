package monitor

import (
	"context"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	"github.com/rileyhilliard/tmuxmon/internal/tmux"
)

// WindowsCycle samples every window of session.
func WindowsCycle(resolver tmux.Resolver, agg *aggregate.Aggregator, session string) CycleFunc {
	return func(ctx context.Context) (*aggregate.Snapshot, error) {
		groups, err := resolver.Windows(ctx, session)
		if err != nil {
			return nil, err
		}
		snap, err := agg.Aggregate(ctx, groups)
		if err != nil {
			return nil, err
		}
		snap.Session = session
		return snap, nil
	}
}

// SessionsCycle samples every session as one group, with host totals.
func SessionsCycle(resolver tmux.Resolver, overview *aggregate.OverviewAggregator) CycleFunc {
	return func(ctx context.Context) (*aggregate.Snapshot, error) {
		groups, err := resolver.Sessions(ctx)
		if err != nil {
			return nil, err
		}
		return overview.Aggregate(ctx, groups)
	}
}
