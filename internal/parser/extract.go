package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dkeller/pylens-mcp/pkg/types"
)

// treeBuilder carries shared state while converting one parsed file into
// definitions, outline nodes, and references. Declarations are collected
// only from module, class, and function bodies; statements nested inside
// control flow are not scanned for definitions.
type treeBuilder struct {
	source   []byte
	lines    []string
	filePath string
	result   *types.ParseResult
}

func (b *treeBuilder) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(b.source[node.StartByte():node.EndByte()])
}

func (b *treeBuilder) line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (b *treeBuilder) column(node *sitter.Node) int {
	return int(node.StartPosition().Column)
}

// walkBody registers the declarations found among the direct statements of
// body, attaching them to parentNode. body is a module or block node.
func (b *treeBuilder) walkBody(body *sitter.Node, parentDef *types.SymbolDefinition, parentNode *types.OutlineNode) {
	if body == nil {
		return
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		b.walkStatement(body.NamedChild(i), parentDef, parentNode)
	}
}

func (b *treeBuilder) walkStatement(stmt *sitter.Node, parentDef *types.SymbolDefinition, parentNode *types.OutlineNode) {
	if stmt == nil {
		return
	}

	switch stmt.Kind() {
	case "decorated_definition":
		b.walkStatement(stmt.ChildByFieldName("definition"), parentDef, parentNode)

	case "class_definition":
		b.registerClass(stmt, parentDef, parentNode)

	case "function_definition":
		b.registerFunction(stmt, parentDef, parentNode)

	case "expression_statement":
		for i := uint(0); i < stmt.NamedChildCount(); i++ {
			child := stmt.NamedChild(i)
			if child.Kind() == "assignment" {
				b.registerAssignment(child, parentDef, parentNode)
			}
		}
	}
}

func (b *treeBuilder) registerClass(node *sitter.Node, parentDef *types.SymbolDefinition, parentNode *types.OutlineNode) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	body := node.ChildByFieldName("body")
	def := &types.SymbolDefinition{
		Name:          b.text(nameNode),
		QualifiedName: parentDef.QualifiedName + "." + b.text(nameNode),
		ParentName:    parentDef.QualifiedName,
		Kind:          types.KindClass,
		Docstring:     b.docstring(body),
		InitDocstring: b.initDocstring(body),
		Source:        b.text(node),
		FilePath:      b.filePath,
		Line:          b.line(node),
		Column:        b.column(node),
	}

	b.result.Definitions[def.QualifiedName] = def
	child := parentNode.AddChild(&types.OutlineNode{Symbol: def})
	b.walkBody(body, def, child)
}

func (b *treeBuilder) registerFunction(node *sitter.Node, parentDef *types.SymbolDefinition, parentNode *types.OutlineNode) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	body := node.ChildByFieldName("body")
	def := &types.SymbolDefinition{
		Name:          b.text(nameNode),
		QualifiedName: parentDef.QualifiedName + "." + b.text(nameNode),
		ParentName:    parentDef.QualifiedName,
		Kind:          types.KindFunction,
		Docstring:     b.docstring(body),
		Source:        b.text(node),
		FilePath:      b.filePath,
		Line:          b.line(node),
		Column:        b.column(node),
	}

	b.result.Definitions[def.QualifiedName] = def
	child := parentNode.AddChild(&types.OutlineNode{Symbol: def})
	b.walkBody(body, def, child)
}

// registerAssignment handles plain and annotated assignments whose target is
// a single bare identifier. Tuple and attribute targets are skipped, the
// same way the outline skips them for every other compound target.
func (b *treeBuilder) registerAssignment(node *sitter.Node, parentDef *types.SymbolDefinition, parentNode *types.OutlineNode) {
	left := node.ChildByFieldName("left")
	if left != nil && left.Kind() == "identifier" {
		def := &types.SymbolDefinition{
			Name:           b.text(left),
			QualifiedName:  parentDef.QualifiedName + "." + b.text(left),
			ParentName:     parentDef.QualifiedName,
			Kind:           types.KindVariable,
			TypeAnnotation: b.text(node.ChildByFieldName("type")),
			Source:         b.text(node),
			FilePath:       b.filePath,
			Line:           b.line(node),
			Column:         b.column(node),
		}
		b.result.Definitions[def.QualifiedName] = def
		parentNode.AddChild(&types.OutlineNode{Symbol: def})
	}

	// Chained assignment (a = b = 1) nests on the right.
	if right := node.ChildByFieldName("right"); right != nil && right.Kind() == "assignment" {
		b.registerAssignment(right, parentDef, parentNode)
	}
}

// docstring returns the cleaned docstring of a module or block node: the
// string literal expression appearing as its first statement, if any.
func (b *treeBuilder) docstring(body *sitter.Node) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}

	first := body.NamedChild(0)
	if first.Kind() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}

	str := first.NamedChild(0)
	if str.Kind() != "string" {
		return ""
	}

	return cleanDocstring(b.stringContent(str))
}

// initDocstring returns the docstring of an __init__ method declared in the
// immediate class body, if one exists.
func (b *treeBuilder) initDocstring(body *sitter.Node) string {
	if body == nil {
		return ""
	}

	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt.Kind() == "decorated_definition" {
			stmt = stmt.ChildByFieldName("definition")
		}
		if stmt == nil || stmt.Kind() != "function_definition" {
			continue
		}
		if b.text(stmt.ChildByFieldName("name")) == "__init__" {
			return b.docstring(stmt.ChildByFieldName("body"))
		}
	}

	return ""
}

// stringContent concatenates the content segments of a string literal,
// dropping quotes and prefixes.
func (b *treeBuilder) stringContent(str *sitter.Node) string {
	var sb strings.Builder
	for i := uint(0); i < str.ChildCount(); i++ {
		child := str.Child(i)
		if child.Kind() == "string_content" {
			sb.WriteString(b.text(child))
		}
	}
	return sb.String()
}

// cleanDocstring normalizes indentation the way Python presents docstrings:
// the first line is stripped, the common leading whitespace of the remaining
// lines is removed, and leading/trailing blank lines are dropped.
func cleanDocstring(doc string) string {
	lines := strings.Split(doc, "\n")

	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	cleaned := make([]string, 0, len(lines))
	cleaned = append(cleaned, strings.TrimLeft(lines[0], " \t"))
	for _, line := range lines[1:] {
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		} else if margin > 0 {
			line = strings.TrimLeft(line, " \t")
		}
		cleaned = append(cleaned, line)
	}

	out := strings.Join(cleaned, "\n")
	return strings.Trim(out, "\n")
}

// collectReferences records every bare-name occurrence in the tree, one
// entry per identifier. Declaration names, parameter names, attribute
// accesses, keyword-argument names, and import clauses do not produce
// references.
func (b *treeBuilder) collectReferences(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "import_statement", "import_from_statement", "future_import_statement":
		return
	case "identifier":
		if b.isNameReference(node) {
			line := b.line(node)
			b.result.References = append(b.result.References, types.SymbolReference{
				Symbol:   b.text(node),
				FilePath: b.filePath,
				Line:     line,
				Column:   b.column(node),
				Context:  b.contextWindow(line),
			})
		}
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		b.collectReferences(node.Child(i))
	}
}

// isNameReference reports whether an identifier node stands for a bare-name
// use or binding, as opposed to a declaration name or a syntactic label.
func (b *treeBuilder) isNameReference(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return true
	}

	switch parent.Kind() {
	case "function_definition", "class_definition":
		// The declared name is not an occurrence.
		name := parent.ChildByFieldName("name")
		return name == nil || name.StartByte() != node.StartByte()

	case "parameters", "lambda_parameters", "list_splat_pattern", "dictionary_splat_pattern":
		return false

	case "typed_parameter":
		// The parameter name is the first child; its annotation still counts.
		return node.StartByte() != parent.StartByte()

	case "default_parameter", "typed_default_parameter":
		name := parent.ChildByFieldName("name")
		return name == nil || name.StartByte() != node.StartByte()

	case "attribute":
		attr := parent.ChildByFieldName("attribute")
		return attr == nil || attr.StartByte() != node.StartByte()

	case "keyword_argument":
		name := parent.ChildByFieldName("name")
		return name == nil || name.StartByte() != node.StartByte()

	case "dotted_name":
		// Only the leading segment of a dotted path is a bare name.
		return node.StartByte() == parent.StartByte()

	case "global_statement", "nonlocal_statement":
		return false
	}

	return true
}

// contextWindow extracts the lines surrounding a 1-based line number, one
// line on each side where available.
func (b *treeBuilder) contextWindow(line int) string {
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	start := idx - 1
	if start < 0 {
		start = 0
	}
	end := idx + 2
	if end > len(b.lines) {
		end = len(b.lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(b.lines[start:end], "\n")
}
