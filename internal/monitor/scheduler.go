package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	"github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/logger"
)

// MinInterval is the shortest refresh interval the scheduler will use.
const MinInterval = 100 * time.Millisecond

// CycleFunc produces one snapshot.
type CycleFunc func(ctx context.Context) (*aggregate.Snapshot, error)

// Update is published after every completed cycle. Exactly one of Snapshot
// and Err is set.
type Update struct {
	Snapshot *aggregate.Snapshot
	Err      error
}

// Scheduler runs a cycle function on a fixed cadence from a single goroutine,
// so cycles never overlap. A cycle that overruns the interval is followed
// immediately by the next one.
type Scheduler struct {
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	cycle CycleFunc

	current atomic.Pointer[aggregate.Snapshot]
	trigger chan struct{}
	updates chan Update
}

// NewScheduler creates a scheduler. interval is clamped to MinInterval.
func NewScheduler(cycle CycleFunc, interval time.Duration, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Noop()
	}
	return &Scheduler{
		interval: ClampInterval(interval),
		log:      log,
		now:      time.Now,
		cycle:    cycle,
		trigger:  make(chan struct{}, 1),
		updates:  make(chan Update, 1),
	}
}

// ClampInterval raises d to MinInterval.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// Interval returns the effective refresh interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Current returns the most recent successful snapshot, or nil.
func (s *Scheduler) Current() *aggregate.Snapshot {
	return s.current.Load()
}

// Updates delivers one Update per completed cycle. If the reader falls
// behind, only the newest pending update is kept.
func (s *Scheduler) Updates() <-chan Update {
	return s.updates
}

// Trigger requests an immediate cycle. Multiple requests before the
// scheduler wakes collapse into one.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// SetCycle replaces the cycle function and requests an immediate cycle.
// A cycle already running finishes with the old function.
func (s *Scheduler) SetCycle(cycle CycleFunc) {
	s.mu.Lock()
	s.cycle = cycle
	s.mu.Unlock()
	s.Trigger()
}

// Run loops until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		start := s.now()
		s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		timer := time.NewTimer(nextDelay(start, s.now(), s.interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// nextDelay is how long to wait after a cycle that started at start and
// finished at now, so cycles begin every interval without overlapping.
func nextDelay(start, now time.Time, interval time.Duration) time.Duration {
	elapsed := now.Sub(start)
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	cycle := s.cycle
	s.mu.Unlock()

	snap, err := cycle(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if !errors.IsCode(err, errors.ErrSource) {
			err = errors.SourceUnavailable(err)
		}
		s.log.Warn("refresh failed: %v", errors.Short(err))
		s.publish(Update{Err: err})
		return
	}

	s.current.Store(snap)
	s.publish(Update{Snapshot: snap})
}

// publish replaces any unread update with u. Only Run sends, so the loop
// terminates after at most one drain.
func (s *Scheduler) publish(u Update) {
	for {
		select {
		case s.updates <- u:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
