// Package tmux resolves tmux sessions and windows into groups of root pids
// by shelling out to the tmux binary.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
)

// DefaultTimeout bounds a single tmux invocation.
const DefaultTimeout = 2 * time.Second

// paneFormat is the list-panes format parsed by parsePanes.
const paneFormat = "#{session_name}\t#{window_index}\t#{window_name}\t#{pane_pid}"

// Resolver maps tmux state to aggregation groups.
type Resolver interface {
	// Windows returns one group per window of session, roots = pane pids.
	Windows(ctx context.Context, session string) ([]aggregate.Group, error)
	// Sessions returns one group per session, roots = every pane pid in it.
	Sessions(ctx context.Context) ([]aggregate.Group, error)
}

// Runner executes tmux with args and returns stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Client talks to the tmux server.
type Client struct {
	run     Runner
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRunner replaces the tmux invocation, for tests.
func WithRunner(r Runner) Option {
	return func(c *Client) {
		c.run = r
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client that runs the tmux binary on PATH.
func New(opts ...Option) *Client {
	c := &Client{
		run:     execRunner,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Windows lists the windows of session.
func (c *Client) Windows(ctx context.Context, session string) ([]aggregate.Group, error) {
	panes, err := c.panes(ctx)
	if err != nil {
		return nil, err
	}
	groups := windowGroups(panes, session)
	if groups == nil {
		return nil, tmerrors.New(tmerrors.ErrTmux,
			"Session '"+session+"' not found",
			"Run 'tmuxmon --list-sessions' to see what is running")
	}
	return groups, nil
}

// Sessions lists every session on the server.
func (c *Client) Sessions(ctx context.Context) ([]aggregate.Group, error) {
	panes, err := c.panes(ctx)
	if err != nil {
		return nil, err
	}
	return sessionGroups(panes), nil
}

// ListSessions returns session names in server order.
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	out, err := c.exec(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// CurrentSession returns the session this process runs inside, or "" when
// not inside tmux.
func (c *Client) CurrentSession(ctx context.Context) (string, error) {
	if os.Getenv("TMUX") == "" {
		return "", nil
	}
	out, err := c.exec(ctx, "display-message", "-p", "#{session_name}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ShowOption reads a global user option (without the leading @).
// Unset options and a missing server both return "".
func (c *Client) ShowOption(ctx context.Context, name string) string {
	out, err := c.exec(ctx, "show-option", "-gqv", "@"+name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (c *Client) panes(ctx context.Context) ([]pane, error) {
	out, err := c.exec(ctx, "list-panes", "-a", "-F", paneFormat)
	if err != nil {
		return nil, err
	}
	return parsePanes(out), nil
}

func (c *Client) exec(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// execError carries tmux's stderr so classify can recognise server states.
type execError struct {
	err    error
	stderr string
}

func (e *execError) Error() string {
	if e.stderr != "" {
		return e.stderr
	}
	return e.err.Error()
}

func (e *execError) Unwrap() error { return e.err }

func execRunner(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &execError{err: err, stderr: strings.TrimSpace(stderr.String())}
	}
	return out, nil
}

func classify(err error) error {
	if tmerrors.IsCode(err, tmerrors.ErrTmux) {
		return err
	}
	if isNotInstalled(err) {
		return tmerrors.WrapWithCode(err, tmerrors.ErrTmux,
			"tmux is not installed",
			"Install tmux and make sure it is on your PATH")
	}
	msg := err.Error()
	if strings.Contains(msg, "no server running") || strings.Contains(msg, "error connecting to") {
		return tmerrors.WrapWithCode(err, tmerrors.ErrTmux,
			"No tmux server is running",
			"Start a session with 'tmux new -s <name>'")
	}
	return tmerrors.WrapWithCode(err, tmerrors.ErrTmux,
		"tmux command failed",
		"Check that the tmux server is reachable")
}

func isNotInstalled(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}

func nonEmptyLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
