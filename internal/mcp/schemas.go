package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// symbolProperty is shared by every lookup tool: a simple or dotted name.
func symbolProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Symbol name, simple (MyClass) or dotted (pkg.module.MyClass). Takes precedence over file_path when both are given",
	}
}

// filePathProperty is the file-based alternative to a symbol lookup.
func filePathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// maxCharsProperty bounds text fields in a response. The server clamps
// anything above 1500.
func maxCharsProperty(def int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Maximum characters per text field (clamped to 1500)",
		"default":     def,
	}
}

// getDefinitionShortTool returns the tool definition for get_definition_short
func getDefinitionShortTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_definition_short",
		Description: "Get a compact view of a Python definition: name, kind, type annotation, file, and docstrings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol":    symbolProperty(),
				"file_path": filePathProperty("Path to a Python file; without a symbol, returns the file's module definition"),
				"max_chars": maxCharsProperty(1000),
			},
		},
	}
}

// getDefinitionFullTool returns the tool definition for get_definition_full
func getDefinitionFullTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_definition_full",
		Description: "Get the full view of a Python definition: position, complete docstrings, and source text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol":    symbolProperty(),
				"file_path": filePathProperty("Path to a Python file; without a symbol, returns the file's module definition"),
				"max_chars": maxCharsProperty(5000),
			},
		},
	}
}

// getOutlineTool returns the tool definition for get_outline
func getOutlineTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_outline",
		Description: "Get the structural outline under a symbol or file: classes, functions, and variables with nesting",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol":    symbolProperty(),
				"file_path": filePathProperty("Path to a Python file; without a symbol, outlines the whole module"),
				"max_chars": maxCharsProperty(1000),
			},
		},
	}
}

// getReferencesTool returns the tool definition for get_references
func getReferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_references",
		Description: "List usage sites of a symbol across indexed files, or all usage sites within one file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol":    symbolProperty(),
				"file_path": filePathProperty("Path to a Python file; without a symbol, lists every reference recorded in the file"),
				"max_chars": maxCharsProperty(300),
			},
		},
	}
}

// filterSymbolsTool returns the tool definition for filter_symbols
func filterSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "filter_symbols",
		Description: "Filter indexed definitions by name substring, kind, type annotation substring, and file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive substring match against symbol names",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Exact symbol kind",
					"enum":        []string{"module", "class", "function", "variable"},
				},
				"type_hint": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive substring match against type annotations",
				},
				"file_path": filePathProperty("Restrict matches to one Python file (indexed on demand)"),
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of matches to return",
					"default":     50,
				},
				"max_chars": maxCharsProperty(500),
			},
		},
	}
}
