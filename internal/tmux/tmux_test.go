package tmux

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	tmerrors "github.com/rileyhilliard/tmuxmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = "work\t0\teditor\t100\n" +
	"work\t0\teditor\t101\n" +
	"work\t1\tserver\t200\n" +
	"work\t10\tlogs\t300\n" +
	"play\t0\tzsh\t400\n" +
	"garbage line\n" +
	"work\t2\tbad\tnotapid\n"

func fakeRunner(out string, err error, calls *[]string) Runner {
	return func(_ context.Context, args ...string) ([]byte, error) {
		if calls != nil {
			*calls = append(*calls, strings.Join(args, " "))
		}
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}

func TestParsePanes(t *testing.T) {
	panes := parsePanes([]byte(sampleOutput))
	require.Len(t, panes, 5)
	assert.Equal(t, pane{session: "work", windowIndex: "0", windowName: "editor", pid: 100}, panes[0])
	assert.Equal(t, int32(400), panes[4].pid)
}

func TestWindows(t *testing.T) {
	var calls []string
	c := New(WithRunner(fakeRunner(sampleOutput, nil, &calls)))

	groups, err := c.Windows(context.Background(), "work")
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "0", groups[0].ID)
	assert.Equal(t, "editor", groups[0].Label)
	assert.Equal(t, []int32{100, 101}, groups[0].Roots)
	assert.Equal(t, "10", groups[2].ID)
	assert.Equal(t, []int32{300}, groups[2].Roots)

	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "list-panes -a -F")
}

func TestWindows_UnknownSession(t *testing.T) {
	c := New(WithRunner(fakeRunner(sampleOutput, nil, nil)))

	_, err := c.Windows(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, tmerrors.IsCode(err, tmerrors.ErrTmux))
	assert.Contains(t, err.Error(), "nope")
}

func TestSessions(t *testing.T) {
	c := New(WithRunner(fakeRunner(sampleOutput, nil, nil)))

	groups, err := c.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "work", groups[0].ID)
	assert.Equal(t, 3, groups[0].Windows)
	assert.Equal(t, []int32{100, 101, 200, 300}, groups[0].Roots)
	assert.Equal(t, "play", groups[1].ID)
	assert.Equal(t, 1, groups[1].Windows)
}

func TestSessions_Empty(t *testing.T) {
	c := New(WithRunner(fakeRunner("", nil, nil)))

	groups, err := c.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListSessions(t *testing.T) {
	var calls []string
	c := New(WithRunner(fakeRunner("work\n\nplay\n", nil, &calls)))

	names, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "play"}, names)
	assert.Equal(t, []string{"list-sessions -F #{session_name}"}, calls)
}

func TestCurrentSession(t *testing.T) {
	c := New(WithRunner(fakeRunner("work\n", nil, nil)))

	t.Setenv("TMUX", "")
	name, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)

	t.Setenv("TMUX", "/tmp/tmux-1000/default,123,0")
	name, err = c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "work", name)
}

func TestShowOption(t *testing.T) {
	var calls []string
	c := New(WithRunner(fakeRunner("1.5\n", nil, &calls)))

	assert.Equal(t, "1.5", c.ShowOption(context.Background(), "tmux_resource_monitor_refresh_rate"))
	assert.Equal(t, "show-option -gqv @tmux_resource_monitor_refresh_rate", calls[0])

	failing := New(WithRunner(fakeRunner("", errors.New("boom"), nil)))
	assert.Empty(t, failing.ShowOption(context.Background(), "x"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "not installed",
			err:     &exec.Error{Name: "tmux", Err: exec.ErrNotFound},
			message: "tmux is not installed",
		},
		{
			name:    "no server",
			err:     &execError{err: errors.New("exit status 1"), stderr: "no server running on /tmp/tmux-1000/default"},
			message: "No tmux server is running",
		},
		{
			name:    "other",
			err:     errors.New("exit status 2"),
			message: "tmux command failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithRunner(fakeRunner("", tt.err, nil)))
			_, err := c.Sessions(context.Background())
			require.Error(t, err)

			var tmErr *tmerrors.Error
			require.ErrorAs(t, err, &tmErr)
			assert.Equal(t, tmerrors.ErrTmux, tmErr.Code)
			assert.Equal(t, tt.message, tmErr.Message)
		})
	}
}
