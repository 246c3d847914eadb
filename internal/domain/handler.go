package domain

import (
	"context"
)

// ToolHandler processes requests for a family of tools sharing a name prefix.
type ToolHandler interface {
	// Handle executes a tool call and returns the shaped tool result.
	// Failures are returned as *CatalogError values.
	Handle(ctx context.Context, req *ToolRequest) (interface{}, error)

	// ListTools returns available tools for this handler.
	ListTools() []ToolDefinition

	// ToolName returns the identifier for this handler.
	// This is used for routing requests to the appropriate handler.
	ToolName() string
}

// Service is what a Transport drives: JSON-RPC dispatch plus the auxiliary
// status surface exposed over HTTP.
type Service interface {
	// HandleRequest processes one JSON-RPC request. A nil response means the
	// request was a notification and nothing must be written back.
	HandleRequest(ctx context.Context, req *Request) *Response

	// Health returns the liveness payload.
	Health() HealthStatus

	// Info returns the server description.
	Info() ServerInfo
}
