package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓"
	SymbolFail     = "✗"
	SymbolWarning  = "⚠"
	SymbolPending  = "○"
	SymbolComplete = "●"
	SymbolSkipped  = "⊘"

	// Tree markers for expandable rows
	SymbolExpanded  = "▾"
	SymbolCollapsed = "▸"
	SymbolLeaf      = "└"

	// Pointer for the selected row
	SymbolCursor = "›"
)

// ExpandMarker returns the tree marker for a row.
func ExpandMarker(expandable, expanded bool) string {
	switch {
	case !expandable:
		return " "
	case expanded:
		return SymbolExpanded
	default:
		return SymbolCollapsed
	}
}
