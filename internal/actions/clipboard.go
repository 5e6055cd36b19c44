package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"
)

// ErrBackendUnavailable means a backend cannot run on this machine at all
// (tool missing from PATH, no display). The executor skips it without error.
var ErrBackendUnavailable = errors.New("clipboard backend unavailable")

// Backend names accepted in config.
const (
	BackendWlCopy = "wl-copy"
	BackendXclip  = "xclip"
	BackendXsel   = "xsel"
	BackendPbcopy = "pbcopy"
	BackendSystem = "system"
	BackendOSC52  = "osc52"
)

// DefaultBackendNames is the order backends are tried in when not configured.
var DefaultBackendNames = []string{BackendWlCopy, BackendXclip, BackendXsel, BackendPbcopy, BackendSystem}

// ClipboardBackend copies text to a clipboard.
type ClipboardBackend interface {
	Name() string
	Copy(ctx context.Context, text string) error
}

// DefaultBackends returns the backends named in DefaultBackendNames.
func DefaultBackends() []ClipboardBackend {
	backends, _ := BackendsByName(DefaultBackendNames)
	return backends
}

// BackendsByName builds backends in the given order. Unknown names are an error.
// OSC 52 sequences go to stdout; see BackendsForTerminal.
func BackendsByName(names []string) ([]ClipboardBackend, error) {
	return BackendsForTerminal(names, os.Stdout)
}

// BackendsForTerminal is BackendsByName with OSC 52 sequences written to
// term. While the dashboard runs term must be the writer Bubble Tea renders
// through, so a sequence never lands inside a frame.
func BackendsForTerminal(names []string, term io.Writer) ([]ClipboardBackend, error) {
	backends := make([]ClipboardBackend, 0, len(names))
	for _, name := range names {
		b, err := backendByName(name, term)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}

// backendByName returns the backend for one config name.
func backendByName(name string, term io.Writer) (ClipboardBackend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendWlCopy:
		return NewCommandBackend(BackendWlCopy, "wl-copy"), nil
	case BackendXclip:
		return NewCommandBackend(BackendXclip, "xclip", "-selection", "clipboard"), nil
	case BackendXsel:
		return NewCommandBackend(BackendXsel, "xsel", "--clipboard", "--input"), nil
	case BackendPbcopy:
		return NewCommandBackend(BackendPbcopy, "pbcopy"), nil
	case BackendSystem:
		return systemBackend{}, nil
	case BackendOSC52:
		return NewOSC52Backend(term), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", name)
	}
}

// CommandBackend pipes text into an external clipboard tool.
type CommandBackend struct {
	name     string
	argv     []string
	lookPath func(string) (string, error)
	run      func(cmd *exec.Cmd) error
}

// NewCommandBackend creates a backend running argv with text on stdin.
func NewCommandBackend(name string, argv ...string) *CommandBackend {
	return &CommandBackend{
		name:     name,
		argv:     argv,
		lookPath: exec.LookPath,
		run:      (*exec.Cmd).Run,
	}
}

// Name implements ClipboardBackend.
func (b *CommandBackend) Name() string { return b.name }

// Copy implements ClipboardBackend.
func (b *CommandBackend) Copy(ctx context.Context, text string) error {
	path, err := b.lookPath(b.argv[0])
	if err != nil {
		return fmt.Errorf("%s: %w", b.argv[0], ErrBackendUnavailable)
	}

	// stdout/stderr stay unset: xclip forks a server that would otherwise
	// hold our pipes open until the selection is replaced.
	cmd := exec.CommandContext(ctx, path, b.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := b.run(cmd); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", b.name, ctxErr)
		}
		return fmt.Errorf("%s: %w", b.name, err)
	}
	return nil
}

// systemBackend uses the platform clipboard through atotto/clipboard.
type systemBackend struct{}

func (systemBackend) Name() string { return BackendSystem }

func (systemBackend) Copy(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("system: %w", ErrBackendUnavailable)
	}
	done := make(chan error, 1)
	go func() {
		done <- clipboard.WriteAll(text)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OSC52Backend asks the terminal emulator to set the clipboard with an
// OSC 52 escape sequence. It works over SSH but cannot confirm delivery.
// The sequence is emitted with a single Write.
type OSC52Backend struct {
	out *termenv.Output
}

// NewOSC52Backend writes escape sequences to w.
func NewOSC52Backend(w io.Writer) *OSC52Backend {
	return &OSC52Backend{out: termenv.NewOutput(w)}
}

// Name implements ClipboardBackend.
func (b *OSC52Backend) Name() string { return BackendOSC52 }

// Copy implements ClipboardBackend.
func (b *OSC52Backend) Copy(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.out.Copy(text)
	return nil
}
