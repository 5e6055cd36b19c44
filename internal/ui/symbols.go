package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolCurrent = "●" // attached session
	SymbolOther   = "○"
)
