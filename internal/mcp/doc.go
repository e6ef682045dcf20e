// Package mcp implements the Model Context Protocol (MCP) server surface.
//
// The server exposes five read-only query tools to AI coding assistants:
//   - get_definition_short: Compact view of a Python definition
//   - get_definition_full: Full view with position and source text
//   - get_outline: Structural outline under a symbol or file
//   - get_references: Usage sites of a symbol, or all within a file
//   - filter_symbols: Conjunctive filtering over indexed definitions
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol. The default transport is stdio:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// A streamable HTTP transport can be selected in the server config.
// All application logging goes to stderr; stdout is reserved for the
// protocol stream.
//
// # Lookup Tools
//
// get_definition_short, get_definition_full, get_outline, and
// get_references share the same addressing scheme: a symbol name (simple
// or dotted), a file path, or both. A symbol takes precedence; a bare file
// path addresses the file's module. A lookup that resolves nothing returns
// a plain not-found message for the definition tools and an empty list for
// the collection tools, never a protocol error.
//
//	Request:
//	{
//	  "name": "get_definition_short",
//	  "arguments": {
//	    "symbol": "MyClass",
//	    "max_chars": 1000
//	  }
//	}
//
//	Response:
//	{
//	  "name": "MyClass",
//	  "kind": "class",
//	  "file_path": "/project/models.py",
//	  "docstring": "A class that does things."
//	}
//
// # Tool: filter_symbols
//
// Filters combine conjunctively; unset filters match everything:
//
//	Request:
//	{
//	  "name": "filter_symbols",
//	  "arguments": {
//	    "name": "handler",
//	    "kind": "function",
//	    "max_results": 50
//	  }
//	}
//
// # Error Handling
//
// Invalid arguments produce standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "symbol or file_path is required"
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (encoding failure)
//
// An unresolved symbol is not an error; sparse indexing means "not found"
// is an ordinary answer.
package mcp
