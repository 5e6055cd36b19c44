// Package ui holds the small pieces of terminal output tmuxmon prints
// outside the monitor itself: the session picker, the session table and
// the shared palette and status symbols.
package ui
