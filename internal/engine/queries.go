package engine

import (
	"context"
	"log"

	"github.com/dkeller/pylens-mcp/internal/storage"
	"github.com/dkeller/pylens-mcp/pkg/types"
)

// Definition is the compact definition view: identity and documentation,
// without position or source text.
type Definition struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	TypeAnnotation string `json:"type,omitempty"`
	FilePath       string `json:"file_path"`
	Docstring      string `json:"docstring,omitempty"`
	InitDocstring  string `json:"init_docstring,omitempty"`
}

// DefinitionDetail is the full definition view: position and source text
// included, docstrings returned whole. Only the source field is subject to
// the character budget.
type DefinitionDetail struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	TypeAnnotation string `json:"type,omitempty"`
	FilePath       string `json:"file_path"`
	Line           int    `json:"line"`
	Column         int    `json:"column"`
	Docstring      string `json:"docstring,omitempty"`
	InitDocstring  string `json:"init_docstring,omitempty"`
	Source         string `json:"source,omitempty"`
}

// OutlineEntry is one node of a structural outline.
type OutlineEntry struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	TypeAnnotation string          `json:"type,omitempty"`
	FilePath       string          `json:"file_path"`
	Line           int             `json:"line"`
	Column         int             `json:"column"`
	Docstring      string          `json:"docstring,omitempty"`
	InitDocstring  string          `json:"init_docstring,omitempty"`
	Children       []*OutlineEntry `json:"children"`
}

// Reference is one usage site of a name.
type Reference struct {
	Symbol   string `json:"symbol"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// SymbolSummary is the filter result row: identity only.
type SymbolSummary struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	TypeAnnotation string `json:"type,omitempty"`
	FilePath       string `json:"file_path"`
}

// FilterOptions are the predicates for FilterSymbols. Zero-valued fields
// are not applied; set fields combine conjunctively.
type FilterOptions struct {
	Name       string
	Kind       string
	TypeHint   string
	FilePath   string
	MaxResults int
}

const defaultMaxResults = 50

// GetDefinitionShort returns the compact view of a definition. A non-empty
// symbol takes precedence over filePath; with only a filePath the file's
// module definition is returned. Returns nil when nothing resolves or both
// inputs are empty.
func (e *Engine) GetDefinitionShort(ctx context.Context, symbol, filePath string, maxChars int) *Definition {
	e.mu.Lock()
	defer e.mu.Unlock()

	defn := e.lookupLocked(ctx, symbol, filePath)
	if defn == nil {
		return nil
	}
	return &Definition{
		Name:           defn.Name,
		Kind:           string(defn.Kind),
		TypeAnnotation: defn.TypeAnnotation,
		FilePath:       defn.FilePath,
		Docstring:      truncateEllipsis(defn.Docstring, maxChars),
		InitDocstring:  truncateEllipsis(defn.InitDocstring, maxChars),
	}
}

// GetDefinitionFull returns the full view of a definition: position, whole
// docstrings, and source text truncated to the character budget. Resolution
// follows the same rules as GetDefinitionShort.
func (e *Engine) GetDefinitionFull(ctx context.Context, symbol, filePath string, maxChars int) *DefinitionDetail {
	e.mu.Lock()
	defer e.mu.Unlock()

	defn := e.lookupLocked(ctx, symbol, filePath)
	if defn == nil {
		return nil
	}
	return &DefinitionDetail{
		Name:           defn.Name,
		Kind:           string(defn.Kind),
		TypeAnnotation: defn.TypeAnnotation,
		FilePath:       defn.FilePath,
		Line:           defn.Line,
		Column:         defn.Column,
		Docstring:      defn.Docstring,
		InitDocstring:  defn.InitDocstring,
		Source:         truncateSource(defn.Source, maxChars),
	}
}

// GetOutline returns the immediate and nested structure under a symbol or
// file: the children of the resolved node, each serialized recursively.
// The result is an empty slice, never nil, when nothing resolves.
func (e *Engine) GetOutline(ctx context.Context, symbol, filePath string, maxChars int) []*OutlineEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	node := e.lookupNodeLocked(ctx, symbol, filePath)
	if node == nil {
		return []*OutlineEntry{}
	}

	entries := make([]*OutlineEntry, 0, len(node.Children))
	for _, child := range node.Children {
		entries = append(entries, outlineEntry(child, maxChars))
	}
	return entries
}

func outlineEntry(node *types.OutlineNode, maxChars int) *OutlineEntry {
	defn := node.Symbol
	entry := &OutlineEntry{
		Name:           defn.Name,
		Kind:           string(defn.Kind),
		TypeAnnotation: defn.TypeAnnotation,
		FilePath:       defn.FilePath,
		Line:           defn.Line,
		Column:         defn.Column,
		Docstring:      truncateEllipsis(defn.Docstring, maxChars),
		InitDocstring:  truncateEllipsis(defn.InitDocstring, maxChars),
		Children:       make([]*OutlineEntry, 0, len(node.Children)),
	}
	for _, child := range node.Children {
		entry.Children = append(entry.Children, outlineEntry(child, maxChars))
	}
	return entry
}

// GetReferences returns usage sites of a symbol, or every usage site
// recorded in a file when only filePath is given. Surrounding-line context
// is captured at parse time but deliberately withheld from the result to
// keep responses small. Returns an empty slice on a miss.
func (e *Engine) GetReferences(ctx context.Context, symbol, filePath string, maxChars int) []*Reference {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = maxChars

	var (
		refs []*types.SymbolReference
		err  error
	)
	switch {
	case symbol != "":
		e.ensureSymbolIndexedLocked(ctx, symbol)
		refs, err = e.store.ListReferencesBySymbol(ctx, symbol)
	case filePath != "":
		path := e.ensureFileIndexedLocked(ctx, filePath)
		refs, err = e.store.ListReferencesByFile(ctx, path)
	default:
		return []*Reference{}
	}
	if err != nil {
		log.Printf("references: query failed: %v", err)
		return []*Reference{}
	}

	out := make([]*Reference, 0, len(refs))
	for _, ref := range refs {
		out = append(out, &Reference{
			Symbol:   ref.Symbol,
			FilePath: ref.FilePath,
			Line:     ref.Line,
			Column:   ref.Column,
		})
	}
	return out
}

// FilterSymbols returns indexed definitions matching every set predicate,
// in indexing order, cut off after MaxResults matches. Setting FilePath
// first ensures that file is indexed, then restricts matches to it.
func (e *Engine) FilterSymbols(ctx context.Context, opts FilterOptions) []*SymbolSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	query := storage.FilterQuery{
		Name:       opts.Name,
		Kind:       opts.Kind,
		TypeHint:   opts.TypeHint,
		MaxResults: maxResults,
	}
	if opts.FilePath != "" {
		query.FilePath = e.ensureFileIndexedLocked(ctx, opts.FilePath)
	}

	defs, err := e.store.FilterSymbols(ctx, query)
	if err != nil {
		log.Printf("filter: query failed: %v", err)
		return []*SymbolSummary{}
	}

	out := make([]*SymbolSummary, 0, len(defs))
	for _, defn := range defs {
		out = append(out, &SymbolSummary{
			Name:           defn.Name,
			Kind:           string(defn.Kind),
			TypeAnnotation: defn.TypeAnnotation,
			FilePath:       defn.FilePath,
		})
	}
	return out
}

// lookupLocked resolves symbol-or-file input to a definition. The caller
// must hold e.mu.
func (e *Engine) lookupLocked(ctx context.Context, symbol, filePath string) *types.SymbolDefinition {
	node := e.lookupNodeLocked(ctx, symbol, filePath)
	if node == nil {
		return nil
	}
	return node.Symbol
}

// lookupNodeLocked resolves symbol-or-file input to an outline node. A
// non-empty symbol wins; filePath alone resolves to the file's module node.
func (e *Engine) lookupNodeLocked(ctx context.Context, symbol, filePath string) *types.OutlineNode {
	if symbol != "" {
		e.ensureSymbolIndexedLocked(ctx, symbol)
		qual := e.resolveQualifiedNameLocked(symbol)
		if qual == "" {
			return nil
		}
		return e.nodeIndex[qual]
	}
	if filePath != "" {
		path := e.ensureFileIndexedLocked(ctx, filePath)
		return e.outlineIndex[path]
	}
	return nil
}
