package domain

// ResponseMapper converts tool results and failures to their JSON-RPC shape.
type ResponseMapper interface {
	// MapToToolResponse wraps a shaped tool result in MCP content blocks.
	MapToToolResponse(result interface{}) (*ToolResponse, error)

	// MapError converts any failure to a JSON-RPC error object. It never
	// returns nil for a non-nil error.
	MapError(err error) *Error
}
