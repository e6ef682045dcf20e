package types

// ParseResult represents the output of parsing one Python source file: the
// module outline tree, the definitions keyed by qualified name, and every
// bare-name reference encountered during a full tree traversal.
type ParseResult struct {
	Module      *OutlineNode
	Definitions map[string]*SymbolDefinition
	References  []SymbolReference

	// Errors encountered during parsing
	Errors []ParseError
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}
