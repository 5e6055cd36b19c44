// Package testing provides test doubles for the tmux package.
package testing

import (
	"context"
	"sync"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
)

// FakeResolver serves canned groups without a tmux server.
type FakeResolver struct {
	mu       sync.Mutex
	windows  map[string][]aggregate.Group
	sessions []aggregate.Group
	err      error

	WindowsCalls  int
	SessionsCalls int
}

// NewFakeResolver creates an empty resolver.
func NewFakeResolver() *FakeResolver {
	return &FakeResolver{windows: make(map[string][]aggregate.Group)}
}

// SetWindows sets the window groups returned for session.
func (r *FakeResolver) SetWindows(session string, groups ...aggregate.Group) *FakeResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[session] = groups
	return r
}

// SetSessions sets the session groups returned by Sessions.
func (r *FakeResolver) SetSessions(groups ...aggregate.Group) *FakeResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = groups
	return r
}

// Fail makes every call return err. Pass nil to recover.
func (r *FakeResolver) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Windows implements tmux.Resolver.
func (r *FakeResolver) Windows(_ context.Context, session string) ([]aggregate.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.WindowsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]aggregate.Group(nil), r.windows[session]...), nil
}

// Sessions implements tmux.Resolver.
func (r *FakeResolver) Sessions(_ context.Context) ([]aggregate.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SessionsCalls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]aggregate.Group(nil), r.sessions...), nil
}
