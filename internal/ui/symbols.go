package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Node collected
	SymbolFail     = "✗" // Node failed
	SymbolPending  = "○" // Not yet started
	SymbolProgress = "◐" // In progress
	SymbolComplete = "●" // Phase done
	SymbolSkipped  = "⊘" // Phase skipped
	SymbolWarning  = "⚠"
)
