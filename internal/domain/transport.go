package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxRequestBytes bounds a single JSON-RPC message.
const maxRequestBytes = 1 << 20

// Transport defines the interface for MCP transport mechanisms.
// Implementations read JSON-RPC requests, hand them to a Service and write
// the responses back, using either stdio or HTTP.
type Transport interface {
	// Serve blocks until ctx is cancelled, the input is exhausted or the
	// transport fails.
	Serve(ctx context.Context, service Service) error

	// Close gracefully shuts down the transport.
	Close() error
}

// StdioTransport implements Transport using stdin/stdout for communication.
// It reads newline-delimited JSON-RPC messages from stdin and writes
// responses to stdout.
type StdioTransport struct {
	reader *bufio.Reader
	writer *bufio.Writer
	logger *zap.Logger
	mu     sync.Mutex // guards writer and closed
	closed bool
	wg     sync.WaitGroup
}

// NewStdioTransport creates a new StdioTransport on os.Stdin and os.Stdout.
func NewStdioTransport(logger *zap.Logger) *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout, logger)
}

// NewStdioTransportWithIO creates a new StdioTransport with custom IO streams.
// This is primarily used for testing.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer, logger *zap.Logger) *StdioTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StdioTransport{
		reader: bufio.NewReader(reader),
		writer: bufio.NewWriter(writer),
		logger: logger.Named("stdio"),
	}
}

// Serve reads newline-delimited requests until EOF or cancellation. Each
// request is handled in its own goroutine; writes are serialized.
func (t *StdioTransport) Serve(ctx context.Context, service Service) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.mu.Unlock()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := t.reader.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	defer t.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("failed to read request: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleLine(ctx, service, line)
			}()
		}
	}
}

// handleLine parses and dispatches a single message.
func (t *StdioTransport) handleLine(ctx context.Context, service Service, line string) {
	req, rpcErr := decodeRequest([]byte(line))
	if rpcErr != nil {
		t.send(rpcErr)
		return
	}

	if response := service.HandleRequest(ctx, req); response != nil {
		t.send(response)
	}
}

// send writes a JSON-RPC response to stdout as a single line.
func (t *StdioTransport) send(response *Response) {
	if err := t.Send(response); err != nil {
		t.logger.Error("failed to send response", zap.Error(err))
	}
}

// Send writes a JSON-RPC response to stdout.
// The response is serialized as a single line of JSON followed by a newline.
func (t *StdioTransport) Send(response *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	// Ensure JSONRPC version is set
	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	// Flush to ensure immediate delivery
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Close gracefully shuts down the transport.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

// HTTPTransport implements Transport as a plain JSON-RPC over HTTP endpoint.
// Endpoints:
//   - POST / and POST /mcp: JSON-RPC request, response in the body
//   - GET /health: liveness
//   - GET /info: server name, version and method list
//   - GET /metrics: Prometheus metrics, when a handler is configured
type HTTPTransport struct {
	host    string
	port    int
	metrics http.Handler
	logger  *zap.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	closed   bool
}

// HTTPTransportOptions configures an HTTPTransport.
type HTTPTransportOptions struct {
	Host    string
	Port    int
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(opts HTTPTransportOptions) *HTTPTransport {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{
		host:    opts.Host,
		port:    opts.Port,
		metrics: opts.Metrics,
		logger:  logger.Named("http"),
	}
}

// Handler returns the HTTP handler serving all endpoints for service.
// Tool calls run to completion even if the client disconnects.
func (t *HTTPTransport) Handler(service Service) http.Handler {
	return t.handler(context.Background(), service)
}

// handler builds the mux. Calls run under ctx rather than the request
// context, so only ctx cancellation stops them.
func (t *HTTPTransport) handler(ctx context.Context, service Service) http.Handler {
	mux := http.NewServeMux()
	rpc := t.handleRPC(ctx, service)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		rpc(w, r)
	})
	mux.HandleFunc("/mcp", rpc)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, service.Health())
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, service.Info())
	})
	if t.metrics != nil {
		mux.Handle("/metrics", t.metrics)
	}
	return mux
}

// Serve listens on the configured address and serves until ctx is cancelled.
func (t *HTTPTransport) Serve(ctx context.Context, service Service) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}

	addr := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	t.listener = listener
	t.server = &http.Server{
		Handler:           t.handler(ctx, service),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := t.server
	t.mu.Unlock()

	t.logger.Info("listening", zap.String("addr", listener.Addr().String()))

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Addr returns the bound address once Serve has started listening.
func (t *HTTPTransport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// handleRPC handles HTTP POST requests carrying one JSON-RPC message.
func (t *HTTPTransport) handleRPC(ctx context.Context, service Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)

		// Only accept POST requests
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if len(body) > maxRequestBytes {
			writeJSON(w, http.StatusOK, NewErrorResponse(nil, &Error{
				Code:    InvalidRequest,
				Message: "Invalid Request",
				Data:    "request body too large",
			}))
			return
		}

		req, rpcErr := decodeRequest(body)
		if rpcErr != nil {
			writeJSON(w, http.StatusOK, rpcErr)
			return
		}

		response := service.HandleRequest(ctx, req)
		if response == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// Close gracefully shuts down the HTTP server.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true

	// Shutdown the HTTP server if it exists
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}

	return nil
}

// decodeRequest parses one JSON-RPC message and validates the envelope.
// It returns either the request or the error response to send back.
func decodeRequest(data []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewErrorResponse(nil, &Error{
			Code:    ParseError,
			Message: "Parse error",
			Data:    err.Error(),
		})
	}

	if req.JSONRPC != JSONRPCVersion {
		return nil, NewErrorResponse(req.ID, &Error{
			Code:    InvalidRequest,
			Message: "Invalid Request",
			Data:    "invalid jsonrpc version",
		})
	}

	if req.Method == "" {
		return nil, NewErrorResponse(req.ID, &Error{
			Code:    InvalidRequest,
			Message: "Invalid Request",
			Data:    "method is required",
		})
	}

	return &req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
