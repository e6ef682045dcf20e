// Package parser converts Python source files into outline trees, symbol
// definitions, and name references using the tree-sitter Python grammar.
//
// For each file, ParseFile produces a ParseResult holding:
//
//   - the module OutlineNode, whose children mirror the lexical nesting of
//     classes, functions, and module-level assignments;
//   - a map from qualified name (module path + enclosing scopes, dot-joined)
//     to SymbolDefinition;
//   - one SymbolReference per bare-name occurrence, each with a small
//     window of surrounding source lines.
//
// Declarations are collected from module, class, and function bodies only.
// Syntax errors are non-fatal: tree-sitter recovers with a partial tree and
// the result records a ParseError alongside whatever was extracted.
//
// Parser instances are safe for concurrent use; tree-sitter parsers are
// recycled through an internal pool.
package parser
