package tmux

import (
	"strconv"
	"strings"

	"github.com/rileyhilliard/tmuxmon/internal/aggregate"
)

// pane is one line of list-panes output.
type pane struct {
	session     string
	windowIndex string
	windowName  string
	pid         int32
}

// parsePanes reads paneFormat lines. Malformed lines are skipped.
func parsePanes(out []byte) []pane {
	var panes []pane
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			continue
		}
		pid, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 32)
		if err != nil || pid <= 0 {
			continue
		}
		panes = append(panes, pane{
			session:     fields[0],
			windowIndex: fields[1],
			windowName:  fields[2],
			pid:         int32(pid),
		})
	}
	return panes
}

// windowGroups builds one group per window of session in first-seen order.
// Returns nil when the session has no panes at all.
func windowGroups(panes []pane, session string) []aggregate.Group {
	var groups []aggregate.Group
	index := make(map[string]int)
	for _, p := range panes {
		if p.session != session {
			continue
		}
		i, ok := index[p.windowIndex]
		if !ok {
			i = len(groups)
			index[p.windowIndex] = i
			groups = append(groups, aggregate.Group{
				ID:    p.windowIndex,
				Label: p.windowName,
			})
		}
		groups[i].Roots = append(groups[i].Roots, p.pid)
	}
	return groups
}

// sessionGroups builds one group per session with every pane pid as a root.
func sessionGroups(panes []pane) []aggregate.Group {
	groups := make([]aggregate.Group, 0)
	index := make(map[string]int)
	windows := make(map[string]map[string]struct{})
	for _, p := range panes {
		i, ok := index[p.session]
		if !ok {
			i = len(groups)
			index[p.session] = i
			windows[p.session] = make(map[string]struct{})
			groups = append(groups, aggregate.Group{ID: p.session, Label: p.session})
		}
		groups[i].Roots = append(groups[i].Roots, p.pid)
		windows[p.session][p.windowIndex] = struct{}{}
	}
	for i := range groups {
		groups[i].Windows = len(windows[groups[i].ID])
	}
	return groups
}
