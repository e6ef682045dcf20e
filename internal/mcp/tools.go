package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dkeller/pylens-mcp/internal/engine"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// handleGetDefinitionShort handles the get_definition_short tool invocation
func (s *Server) handleGetDefinitionShort(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, filePath, err := lookupArgs(request)
	if err != nil {
		return nil, err
	}
	maxChars := getIntDefault(toolArgs(request), "max_chars", 1000)

	defn := s.engine.GetDefinitionShort(ctx, symbol, filePath, maxChars)
	if defn == nil {
		return mcp.NewToolResultText(notFoundMessage(symbol, filePath)), nil
	}
	return jsonResult(defn)
}

// handleGetDefinitionFull handles the get_definition_full tool invocation
func (s *Server) handleGetDefinitionFull(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, filePath, err := lookupArgs(request)
	if err != nil {
		return nil, err
	}
	maxChars := getIntDefault(toolArgs(request), "max_chars", 5000)

	defn := s.engine.GetDefinitionFull(ctx, symbol, filePath, maxChars)
	if defn == nil {
		return mcp.NewToolResultText(notFoundMessage(symbol, filePath)), nil
	}
	return jsonResult(defn)
}

// handleGetOutline handles the get_outline tool invocation
func (s *Server) handleGetOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, filePath, err := lookupArgs(request)
	if err != nil {
		return nil, err
	}
	maxChars := getIntDefault(toolArgs(request), "max_chars", 1000)

	outline := s.engine.GetOutline(ctx, symbol, filePath, maxChars)
	return jsonResult(outline)
}

// handleGetReferences handles the get_references tool invocation
func (s *Server) handleGetReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, filePath, err := lookupArgs(request)
	if err != nil {
		return nil, err
	}
	maxChars := getIntDefault(toolArgs(request), "max_chars", 300)

	refs := s.engine.GetReferences(ctx, symbol, filePath, maxChars)
	return jsonResult(refs)
}

// handleFilterSymbols handles the filter_symbols tool invocation
func (s *Server) handleFilterSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	opts := engine.FilterOptions{
		Name:       getStringDefault(args, "name", ""),
		Kind:       getStringDefault(args, "kind", ""),
		TypeHint:   getStringDefault(args, "type_hint", ""),
		FilePath:   getStringDefault(args, "file_path", ""),
		MaxResults: getIntDefault(args, "max_results", 50),
	}

	matches := s.engine.FilterSymbols(ctx, opts)
	return jsonResult(matches)
}

// Helper functions

// toolArgs extracts the argument map from a request; a missing or
// ill-typed payload yields an empty map so defaults apply.
func toolArgs(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// lookupArgs extracts the symbol/file_path pair shared by the lookup
// tools. At least one must be set.
func lookupArgs(request mcp.CallToolRequest) (symbol, filePath string, err error) {
	args := toolArgs(request)
	symbol = getStringDefault(args, "symbol", "")
	filePath = getStringDefault(args, "file_path", "")
	if symbol == "" && filePath == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "symbol or file_path is required", map[string]interface{}{
			"param":  "symbol",
			"reason": "missing or empty",
		})
	}
	return symbol, filePath, nil
}

// jsonResult marshals any value as an indented-JSON text result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(bytes)), nil
}

// notFoundMessage reports an unresolved lookup in a readable form.
func notFoundMessage(symbol, filePath string) string {
	if symbol != "" {
		return fmt.Sprintf("No definition found for symbol: %s", symbol)
	}
	return fmt.Sprintf("No definition found for file: %s", filePath)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
