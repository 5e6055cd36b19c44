// Package actions performs the side effects a user can trigger on a process:
// delivering signals and copying text to the clipboard.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/rileyhilliard/tmuxmon/internal/logger"
)

// Signal bounds accepted by SendSignal.
const (
	MinSignal = 1
	MaxSignal = 31
)

// DefaultClipboardTimeout bounds each clipboard backend attempt.
const DefaultClipboardTimeout = time.Second

var (
	ErrPermissionDenied = tmerrors.New(tmerrors.ErrAction,
		"Permission denied",
		"The process belongs to another user; try sudo")
	ErrNoSuchProcess = tmerrors.New(tmerrors.ErrAction,
		"No such process",
		"It exited before the signal arrived")
	ErrInvalidSignal = tmerrors.New(tmerrors.ErrAction,
		"Invalid signal",
		fmt.Sprintf("Enter a signal number between %d and %d", MinSignal, MaxSignal))
	ErrNoClipboardTool = tmerrors.New(tmerrors.ErrClipboard,
		"No clipboard tool available",
		"Install wl-copy, xclip or xsel, or enable the osc52 backend")
)

// Signaler delivers sig to pid.
type Signaler func(pid int, sig unix.Signal) error

// Executor runs process actions. Safe for concurrent use.
type Executor struct {
	signal   Signaler
	backends []ClipboardBackend
	timeout  time.Duration
	log      logger.Logger

	mu     sync.Mutex
	noTool bool // every backend was missing on a previous attempt
}

// Option configures an Executor.
type Option func(*Executor)

// WithSignaler replaces signal delivery, for tests.
func WithSignaler(s Signaler) Option {
	return func(e *Executor) {
		e.signal = s
	}
}

// WithBackends sets the clipboard backends, tried in order.
func WithBackends(backends ...ClipboardBackend) Option {
	return func(e *Executor) {
		e.backends = backends
	}
}

// WithClipboardTimeout bounds each backend attempt.
func WithClipboardTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// NewExecutor creates an executor using unix.Kill and the default backends.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		signal:   unix.Kill,
		backends: DefaultBackends(),
		timeout:  DefaultClipboardTimeout,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SendSignal delivers signum to pid. pid 0, 1 and negative values (process
// groups) are refused.
func (e *Executor) SendSignal(ctx context.Context, pid int32, signum int) error {
	if signum < MinSignal || signum > MaxSignal {
		return fmt.Errorf("signal %d: %w", signum, ErrInvalidSignal)
	}
	if pid <= 1 {
		return fmt.Errorf("pid %d: %w", pid, ErrPermissionDenied)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := e.signal(int(pid), unix.Signal(signum))
	switch {
	case err == nil:
		e.log.Debug("sent signal %d to pid %d", signum, pid)
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("pid %d: %w", pid, ErrNoSuchProcess)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("pid %d: %w", pid, ErrPermissionDenied)
	case errors.Is(err, unix.EINVAL):
		return fmt.Errorf("signal %d: %w", signum, ErrInvalidSignal)
	default:
		return tmerrors.WrapWithCode(err, tmerrors.ErrAction,
			fmt.Sprintf("Couldn't signal pid %d", pid), "")
	}
}

// CopyToClipboard tries each backend in order and returns the name of the
// first one that succeeds. Once every backend has been found missing, later
// calls fail fast with ErrNoClipboardTool.
func (e *Executor) CopyToClipboard(ctx context.Context, text string) (string, error) {
	e.mu.Lock()
	noTool := e.noTool
	e.mu.Unlock()
	if noTool || len(e.backends) == 0 {
		return "", ErrNoClipboardTool
	}

	missing := 0
	var lastErr error
	for _, b := range e.backends {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		err := b.Copy(attemptCtx, text)
		cancel()

		if err == nil {
			return b.Name(), nil
		}
		if errors.Is(err, ErrBackendUnavailable) {
			missing++
			continue
		}
		e.log.Debug("clipboard backend %s: %v", b.Name(), err)
		lastErr = err
	}

	if missing == len(e.backends) {
		e.mu.Lock()
		e.noTool = true
		e.mu.Unlock()
		e.log.Warn("no clipboard backend available")
		return "", ErrNoClipboardTool
	}
	return "", fmt.Errorf("%w: %v", ErrNoClipboardTool, lastErr)
}
