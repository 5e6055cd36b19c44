// Package monitor implements the interactive tmuxmon TUI.
//
// The package uses the Bubble Tea framework, which follows The Elm Architecture
// (Model-Update-View pattern):
//
//   - Model: Holds the active view, the controllers and the latest snapshot
//   - Update: Processes messages (keystrokes, scheduler updates, action results)
//   - View: Renders the current state to a string for display
//
// # Key Components
//
//	Scheduler          - Runs one sampling cycle at a time on a fixed cadence
//	Controller         - Key-driven state machine for one session's windows
//	OverviewController - Key-driven state machine for the all-sessions screen
//	Render             - Pure function from snapshot and selection to a frame
//	History            - Ring buffers of per-group CPU for trend sparklines
//
// # Message Flow
//
//  1. The Scheduler goroutine resolves tmux groups and aggregates process trees
//  2. Each result is published on Scheduler.Updates and arrives as an updateMsg
//  3. The active controller re-finds its group and cursor in the new snapshot
//  4. Key presses return Actions; signals and copies run as tea.Cmds with a
//     timeout and report back through actionDoneMsg
//  5. View() calls Render with the snapshot, the selection and the status line
//
// Controllers never perform I/O, so everything but the Model is testable
// without a terminal.
package monitor
