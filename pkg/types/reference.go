package types

// SymbolReference represents one use-site of a name. The name is the simple
// (unresolved) identifier; references are never resolved to qualified names.
type SymbolReference struct {
	Symbol   string
	FilePath string // Absolute path to the file containing the occurrence
	Line     int    // 1-based
	Column   int    // 0-based
	Context  string // Surrounding lines (typically +/- 1 line around the occurrence)
}
