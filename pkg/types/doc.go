// Package types provides shared type definitions for the PyLens MCP server.
//
// This package defines the domain types exchanged between the parser, the
// index engine, and the storage layer: symbol definitions, outline trees,
// references, and parse results.
//
// # Core Types
//
// SymbolDefinition describes one declared Python symbol, addressed by its
// qualified name:
//
//	defn := &types.SymbolDefinition{
//	    Name:          "MyClass",
//	    QualifiedName: "pkg.mod.MyClass",
//	    ParentName:    "pkg.mod",
//	    Kind:          types.KindClass,
//	}
//
// OutlineNode mirrors the lexical nesting of declarations within a file.
// The module is the root; methods hang off their class node, nested
// functions off their enclosing function node.
//
// SymbolReference records one occurrence of a bare name, with its location
// and a small window of surrounding lines.
//
// # Validation
//
// Definitions implement a Validate method enforcing the structural
// invariants (qualified name present, module nodes without parents,
// positive line numbers):
//
//	if err := defn.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
