package types

import "errors"

// SymbolKind represents the kind of Python symbol a definition describes
type SymbolKind string

const (
	KindModule   SymbolKind = "module"
	KindClass    SymbolKind = "class"
	KindFunction SymbolKind = "function"
	KindVariable SymbolKind = "variable"
)

// SymbolDefinition represents one declared symbol extracted from a Python
// source file. Definitions are created once when their owning file is parsed
// and are immutable afterwards.
type SymbolDefinition struct {
	// Identification
	Name          string // Simple (unqualified) name, e.g. "MyClass"
	QualifiedName string // Dot-joined path from the module root, e.g. "pkg.mod.MyClass"
	ParentName    string // Qualified name of the enclosing symbol; empty for modules
	Kind          SymbolKind

	// Content
	TypeAnnotation string // Textual annotation for annotated assignments; empty otherwise
	Docstring      string
	InitDocstring  string // __init__ docstring, classes only
	Source         string // Full source text of the definition span

	// Location
	FilePath string // Absolute path to the owning file
	Line     int    // 1-based
	Column   int    // 0-based
}

// ValidateKind checks if the symbol kind is valid
func (d *SymbolDefinition) ValidateKind() error {
	switch d.Kind {
	case KindModule, KindClass, KindFunction, KindVariable:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// Validate performs comprehensive validation of the definition
func (d *SymbolDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("symbol name is required")
	}

	if d.QualifiedName == "" {
		return errors.New("qualified name is required")
	}

	if err := d.ValidateKind(); err != nil {
		return err
	}

	if d.FilePath == "" {
		return errors.New("file path is required")
	}

	// Modules have no parent; everything else must have one
	if d.Kind == KindModule && d.ParentName != "" {
		return errors.New("modules cannot have a parent symbol")
	}
	if d.Kind != KindModule && d.ParentName == "" {
		return errors.New("non-module symbols must have a parent symbol")
	}

	if d.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}
	if d.Column < 0 {
		return errors.New("invalid position: column must be non-negative")
	}

	return nil
}
