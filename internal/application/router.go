package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rawg-mcp-server/internal/domain"
)

// RequestRouter dispatches MCP tool requests to the appropriate ToolHandler.
// Handlers are keyed by the prefix of the tool names they own
// (rawg_search -> rawg).
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
}

// NewRequestRouter creates a new RequestRouter with the provided handlers.
// Handlers are registered by their ToolName() identifier.
func NewRequestRouter(handlers ...domain.ToolHandler) *RequestRouter {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
	}

	for _, handler := range handlers {
		router.handlers[handler.ToolName()] = handler
	}

	return router
}

// Route dispatches a tool request to the appropriate handler based on the tool name.
// An unknown tool is a MethodNotFound JSON-RPC error.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (interface{}, error) {
	handler, ok := r.handlerFor(req.Name)
	if !ok {
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Tool not found",
			Data:    fmt.Sprintf("unknown tool: %s", req.Name),
		}
	}

	return handler.Handle(ctx, req)
}

// HasTool reports whether some handler advertises a tool called name.
func (r *RequestRouter) HasTool(name string) bool {
	handler, ok := r.handlerFor(name)
	if !ok {
		return false
	}
	for _, tool := range handler.ListTools() {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// ListAllTools aggregates tool definitions from all registered handlers,
// ordered by handler name and then by each handler's own order.
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	allTools := make([]domain.ToolDefinition, 0)
	for _, name := range names {
		allTools = append(allTools, r.handlers[name].ListTools()...)
	}

	return allTools
}

// ToolNames returns the names of all advertised tools.
func (r *RequestRouter) ToolNames() []string {
	tools := r.ListAllTools()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}

func (r *RequestRouter) handlerFor(toolName string) (domain.ToolHandler, bool) {
	handlerName := extractHandlerName(toolName)
	if handlerName == "" {
		return nil, false
	}
	handler, exists := r.handlers[handlerName]
	return handler, exists
}

// GetHandler returns the handler for a specific tool name.
// This is useful for testing and debugging.
func (r *RequestRouter) GetHandler(handlerName string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[handlerName]
	return handler, exists
}

// extractHandlerName extracts the handler identifier from a tool name.
// For example: "rawg_game_details" -> "rawg"
func extractHandlerName(toolName string) string {
	idx := strings.Index(toolName, "_")
	if idx <= 0 {
		return ""
	}

	return toolName[:idx]
}
