package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dkeller/pylens-mcp/pkg/types"
)

// Parser handles tree-sitter based parsing of Python source files
type Parser struct {
	pool *parserPool
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		pool: newParserPool(),
	}
}

// ParseFile parses a Python source file and extracts the module outline
// tree, the qualified-name keyed definitions, and all bare-name references.
// The project root is used to derive the module's dot-joined qualified name;
// files outside the root fall back to their bare stem.
func (p *Parser) ParseFile(filePath, projectRoot string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	sp := p.pool.get()
	defer p.pool.put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", filePath)
	}
	defer tree.Close()

	root := tree.RootNode()

	result := &types.ParseResult{
		Definitions: make(map[string]*types.SymbolDefinition),
	}

	// Syntax errors are non-fatal: tree-sitter recovers and yields a partial
	// tree, so record the error and extract whatever parsed.
	if root.HasError() {
		result.AddError(filePath, 0, 0, "syntax error")
	}

	b := &treeBuilder{
		source:   content,
		lines:    strings.Split(string(content), "\n"),
		filePath: filePath,
		result:   result,
	}

	moduleName := moduleQualifiedName(filePath, projectRoot)
	moduleDef := &types.SymbolDefinition{
		Name:          moduleName[strings.LastIndex(moduleName, ".")+1:],
		QualifiedName: moduleName,
		Kind:          types.KindModule,
		FilePath:      filePath,
		Line:          1,
		Column:        0,
		Docstring:     b.docstring(root),
		Source:        string(content),
	}
	result.Definitions[moduleDef.QualifiedName] = moduleDef
	result.Module = &types.OutlineNode{Symbol: moduleDef}

	b.walkBody(root, moduleDef, result.Module)
	b.collectReferences(root)

	return result, nil
}

// moduleQualifiedName computes a module's qualified name from its file path:
// the project-root-relative path with the extension stripped and separators
// replaced by dots, or the bare stem if the file lies outside the root.
func moduleQualifiedName(filePath, projectRoot string) string {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	if projectRoot == "" {
		return stem
	}

	rel, err := filepath.Rel(projectRoot, filePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return stem
	}

	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(rel, string(filepath.Separator))
	return strings.Join(parts, ".")
}
