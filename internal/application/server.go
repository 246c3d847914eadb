package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rawg-mcp-server/internal/domain"
)

// Identity reported by initialize, /info and /health.
const (
	ServerName        = "RAWG MCP Server"
	ServerVersion     = "1.0.0"
	ServerDescription = "MCP server to access RAWG Video Games Database"
)

// unknownToolLabel keeps metric label cardinality bounded for bogus tool names.
const unknownToolLabel = "unknown"

// Server is the main MCP server implementation.
// It implements domain.Service: the transport hands it every decoded
// JSON-RPC request and writes back whatever it returns.
type Server struct {
	transport    domain.Transport
	router       *RequestRouter
	mapper       domain.ResponseMapper
	config       *domain.Config
	logger       *zap.Logger
	interactions domain.InteractionLogger
	metrics      domain.Metrics
}

// ServerOptions carries the optional collaborators of a Server.
type ServerOptions struct {
	Logger       *zap.Logger
	Interactions domain.InteractionLogger
	Metrics      domain.Metrics
}

// NewServer creates a new MCP server instance.
func NewServer(
	transport domain.Transport,
	router *RequestRouter,
	mapper domain.ResponseMapper,
	config *domain.Config,
	opts ServerOptions,
) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interactions := opts.Interactions
	if interactions == nil {
		interactions = domain.NopInteractionLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}

	return &Server{
		transport:    transport,
		router:       router,
		mapper:       mapper,
		config:       config,
		logger:       logger.Named("server"),
		interactions: interactions,
		metrics:      metrics,
	}
}

// Start serves requests until ctx is cancelled or the transport stops.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("server started",
		zap.String("transport_type", s.config.Transport.Type),
		zap.Strings("tools", s.router.ToolNames()),
	)

	if err := s.transport.Serve(ctx, s); err != nil {
		s.logger.Error("transport failed", zap.Error(err))
		return fmt.Errorf("transport failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("closing server")
	return errors.Join(s.transport.Close(), s.interactions.Close())
}

// HandleRequest processes a single JSON-RPC request. It never panics and
// returns nil for notifications.
func (s *Server) HandleRequest(ctx context.Context, req *domain.Request) (response *domain.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling request",
				zap.String("method", req.Method),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			response = nil
			if !req.IsNotification() {
				response = domain.NewErrorResponse(req.ID, &domain.Error{
					Code:    domain.InternalError,
					Message: "Internal error",
					Data:    map[string]interface{}{"kind": domain.KindInternal},
				})
			}
		}
	}()

	if strings.HasPrefix(req.Method, "notifications/") {
		s.logger.Debug("received notification", zap.String("method", req.Method))
		return nil
	}

	s.logger.Debug("received request",
		zap.String("method", req.Method),
		zap.Any("request_id", req.ID),
	)

	result, err := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		return domain.NewErrorResponse(req.ID, s.mapper.MapError(err))
	}
	return domain.NewResultResponse(req.ID, result)
}

// dispatch routes a request by method name.
func (s *Server) dispatch(ctx context.Context, req *domain.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "ping":
		return map[string]interface{}{}, nil
	case "tools/list":
		return map[string]interface{}{
			"tools": s.router.ListAllTools(),
		}, nil
	case "list_tools":
		return s.handleListTools(), nil
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	}

	if s.router.HasTool(req.Method) {
		return s.handleDirectCall(ctx, req)
	}

	return nil, &domain.Error{
		Code:    domain.MethodNotFound,
		Message: "Method not found",
		Data:    fmt.Sprintf("unknown method: %s", req.Method),
	}
}

// handleInitialize handles the MCP initialize method.
func (s *Server) handleInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": domain.MCPProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
	}
}

// handleListTools returns the tool list in function-calling format.
func (s *Server) handleListTools() map[string]interface{} {
	tools := s.router.ListAllTools()
	functions := make([]map[string]interface{}, 0, len(tools))
	for _, tool := range tools {
		functions = append(functions, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        tool.Name,
				"description": tool.Description,
				"parameters":  tool.InputSchema,
			},
		})
	}
	return map[string]interface{}{
		"status": "ok",
		"tools":  functions,
	}
}

// handleToolsCall handles the MCP tools/call method. The tool result is
// wrapped in MCP content blocks.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (interface{}, error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "Invalid params",
			Data:    err.Error(),
		}
	}

	result, err := s.callTool(ctx, req.Method, toolReq)
	if err != nil {
		return nil, err
	}

	return s.mapper.MapToToolResponse(result)
}

// handleDirectCall serves a tool invoked as a JSON-RPC method with named
// params. The tool result is returned as is.
func (s *Server) handleDirectCall(ctx context.Context, req *domain.Request) (interface{}, error) {
	var args map[string]interface{}
	switch params := req.Params.(type) {
	case nil:
		args = map[string]interface{}{}
	case map[string]interface{}:
		args = params
	default:
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "Invalid params",
			Data:    "params must be an object of named parameters",
		}
	}

	return s.callTool(ctx, req.Method, &domain.ToolRequest{
		Name:      req.Method,
		Arguments: args,
	})
}

// callTool routes one tool call and records it in the logs and metrics.
func (s *Server) callTool(ctx context.Context, method string, toolReq *domain.ToolRequest) (interface{}, error) {
	requestID := uuid.NewString()
	start := time.Now()

	result, err := s.router.Route(ctx, toolReq)
	duration := time.Since(start)

	record := domain.InteractionRecord{
		RequestID: requestID,
		Timestamp: start,
		Method:    method,
		Tool:      toolReq.Name,
		Arguments: toolReq.Arguments,
		Duration:  duration,
	}

	label := toolReq.Name
	if !s.router.HasTool(label) {
		label = unknownToolLabel
	}

	if err != nil {
		record.ErrorKind = domain.KindOf(err)
		record.Error = err.Error()
		s.metrics.ObserveToolCall(label, outcomeOf(err), duration)
		s.logger.Warn("tool call failed",
			zap.String("request_id", requestID),
			zap.String("tool", toolReq.Name),
			zap.String("kind", string(record.ErrorKind)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		record.Result = result
		s.metrics.ObserveToolCall(label, domain.OutcomeSuccess, duration)
		s.logger.Info("tool call",
			zap.String("request_id", requestID),
			zap.String("tool", toolReq.Name),
			zap.Duration("duration", duration),
		)
	}

	s.interactions.Record(record)
	return result, err
}

// outcomeOf labels a failed call by its error kind.
func outcomeOf(err error) string {
	var rpcErr *domain.Error
	if errors.As(err, &rpcErr) {
		return "rpc_error"
	}
	return string(domain.KindOf(err))
}

// parseToolRequest parses the params field into a ToolRequest.
func parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	// Convert params to JSON and back to ToolRequest
	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}

	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

// Health returns the liveness payload.
func (s *Server) Health() domain.HealthStatus {
	return domain.HealthStatus{
		Status:           "ok",
		Message:          ServerName + " is running",
		APIKeyConfigured: s.config != nil && strings.TrimSpace(s.config.RAWG.APIKey) != "",
	}
}

// Info returns the server description.
func (s *Server) Info() domain.ServerInfo {
	return domain.ServerInfo{
		Name:        ServerName,
		Version:     ServerVersion,
		Description: ServerDescription,
		Methods:     s.router.ToolNames(),
	}
}

var _ domain.Service = (*Server)(nil)
