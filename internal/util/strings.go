// Package util provides small text helpers shared by the CLI and the monitor.
package util

import "strings"

// Scroll markers drawn when text is clipped on either side.
const (
	MarkerLeft  = "«"
	MarkerRight = "»"
)

// JoinOrNone joins strings with ", " or returns "(none)" for empty slices.
func JoinOrNone(items []string) string {
	return JoinOrDefault(items, "(none)")
}

// JoinOrDefault joins strings with ", " or returns the default value for empty slices.
func JoinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Truncate shortens s to at most width runes, ending in "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// Window returns the part of s visible when scrolled offset runes to the
// right inside a field width runes wide. Clipped sides are marked with
// MarkerLeft and MarkerRight. width <= 0 means unlimited.
func Window(s string, offset, width int) string {
	r := []rune(s)
	if offset < 0 {
		offset = 0
	}
	if offset > len(r) {
		offset = len(r)
	}

	left := offset > 0
	r = r[offset:]
	if width <= 0 {
		if left {
			return MarkerLeft + string(r)
		}
		return string(r)
	}

	avail := width
	if left {
		avail--
	}
	if avail <= 0 {
		return MarkerLeft
	}

	right := len(r) > avail
	if right {
		avail--
		if avail < 0 {
			avail = 0
		}
		r = r[:avail]
	}

	out := string(r)
	if left {
		out = MarkerLeft + out
	}
	if right {
		out += MarkerRight
	}
	return out
}
