// Package cli implements the tmuxmon command-line interface.
//
// The root command resolves a session, loads the config and runs the
// monitor. Subcommands cover everything around it:
//
//	tmuxmon [session]          - monitor a session (or --overview for all)
//	tmuxmon config [path|set|init]
//	tmuxmon version
//	tmuxmon completion <shell>
//
// # Configuration
//
// Settings come from defaults, tmux user options, the config file and
// TMUXMON_* environment variables, in increasing precedence, with the
// --window and --refresh-rate flags on top.
//
// # Terminal ownership
//
// While the dashboard runs, Bubble Tea owns the terminal. The standard
// log package is discarded, or sent to tmuxmon-debug.log when
// TMUXMON_DEBUG is set.
package cli
