package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rawg-mcp-server/internal/domain"
)

// recordingInteractions keeps interaction records in memory.
type recordingInteractions struct {
	mu      sync.Mutex
	records []domain.InteractionRecord
	closed  bool
}

func (r *recordingInteractions) Record(record domain.InteractionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func (r *recordingInteractions) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingInteractions) Records() []domain.InteractionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.InteractionRecord(nil), r.records...)
}

// recordingMetrics counts tool calls by "tool/outcome".
type recordingMetrics struct {
	mu    sync.Mutex
	tools []string
}

func (m *recordingMetrics) ObserveUpstream(string, string, time.Duration) {}
func (m *recordingMetrics) ObserveRateLimitWait(time.Duration)            {}

func (m *recordingMetrics) ObserveToolCall(tool, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = append(m.tools, tool+"/"+outcome)
}

// nopTransport satisfies domain.Transport for servers driven directly.
type nopTransport struct{}

func (nopTransport) Serve(ctx context.Context, service domain.Service) error { return nil }
func (nopTransport) Close() error                                            { return nil }

type testServer struct {
	server       *Server
	fetcher      *fakeFetcher
	interactions *recordingInteractions
	metrics      *recordingMetrics
}

func newTestServer(t *testing.T, transport domain.Transport) *testServer {
	t.Helper()

	fetcher := &fakeFetcher{
		respond: func(query domain.CatalogQuery) (*domain.CatalogResponse, error) {
			switch query.Operation {
			case "search":
				return jsonResponse(listPayload(gameRecord(9767, "Hollow Knight"))), nil
			default:
				return jsonResponse(`{"count":0,"results":[]}`), nil
			}
		},
	}
	handler, err := NewRAWGHandler(fetcher, domain.NewShaper())
	require.NoError(t, err)

	if transport == nil {
		transport = nopTransport{}
	}

	config := domain.DefaultConfig()
	config.RAWG.APIKey = "test-key"

	interactions := &recordingInteractions{}
	metrics := &recordingMetrics{}
	server := NewServer(transport, NewRequestRouter(handler), domain.NewResponseMapper(), config, ServerOptions{
		Logger:       zap.NewNop(),
		Interactions: interactions,
		Metrics:      metrics,
	})

	return &testServer{
		server:       server,
		fetcher:      fetcher,
		interactions: interactions,
		metrics:      metrics,
	}
}

func request(id interface{}, method string, params interface{}) *domain.Request {
	return &domain.Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// roundTrip serializes a response and decodes it generically, as a client would.
func roundTrip(t *testing.T, response *domain.Response) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(response)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func TestServer_Initialize(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request(1, "initialize", nil))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	decoded := roundTrip(t, resp)
	result := decoded["result"].(map[string]interface{})
	assert.Equal(t, domain.MCPProtocolVersion, result["protocolVersion"])
	assert.Equal(t, ServerName, result["serverInfo"].(map[string]interface{})["name"])
	assert.Contains(t, result["capabilities"], "tools")
}

func TestServer_Ping(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request("abc", "ping", nil))
	require.NotNil(t, resp)

	decoded := roundTrip(t, resp)
	assert.Equal(t, "abc", decoded["id"])
	assert.Equal(t, map[string]interface{}{}, decoded["result"])
}

func TestServer_ToolsList(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request(1, "tools/list", nil))
	decoded := roundTrip(t, resp)

	tools := decoded["result"].(map[string]interface{})["tools"].([]interface{})
	require.Len(t, tools, 7)
	first := tools[0].(map[string]interface{})
	assert.Equal(t, ToolRAWGSearch, first["name"])
	assert.Contains(t, first, "inputSchema")
}

func TestServer_ListToolsFunctionFormat(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request(1, "list_tools", nil))
	decoded := roundTrip(t, resp)

	result := decoded["result"].(map[string]interface{})
	assert.Equal(t, "ok", result["status"])
	tools := result["tools"].([]interface{})
	require.Len(t, tools, 7)

	entry := tools[6].(map[string]interface{})
	assert.Equal(t, "function", entry["type"])
	function := entry["function"].(map[string]interface{})
	assert.Equal(t, ToolRAWGGameDLCs, function["name"])
	assert.Contains(t, function, "parameters")
}

func TestServer_DirectToolMethod(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request(7, ToolRAWGSearch, map[string]interface{}{
		"query": "Hollow Knight",
	}))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	decoded := roundTrip(t, resp)
	result := decoded["result"].(map[string]interface{})
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "Hollow Knight", result["query"])
	assert.Equal(t, float64(1), result["count"])

	games := result["games"].([]interface{})
	require.Len(t, games, 1)
	game := games[0].(map[string]interface{})
	for _, field := range []string{"id", "name", "released", "rating", "metacritic", "genres", "platforms", "tags", "background_image"} {
		assert.Contains(t, game, field)
	}
}

func TestServer_ToolsCallWrapsContent(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.server.HandleRequest(context.Background(), request(2, "tools/call", map[string]interface{}{
		"name":      ToolRAWGSearch,
		"arguments": map[string]interface{}{"query": "Hollow Knight"},
	}))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	toolResp, ok := resp.Result.(*domain.ToolResponse)
	require.True(t, ok, "result type = %T", resp.Result)
	require.Len(t, toolResp.Content, 1)
	assert.Equal(t, "text", toolResp.Content[0].Type)
	assert.Contains(t, toolResp.Content[0].Text, "Hollow Knight")
	assert.IsType(t, &domain.SearchResult{}, toolResp.StructuredContent)
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		req      *domain.Request
		wantCode int
		wantKind string
	}{
		{
			name:     "unknown method",
			req:      request(1, "rawg_trending", nil),
			wantCode: domain.MethodNotFound,
		},
		{
			name:     "missing required param",
			req:      request(1, ToolRAWGSearch, map[string]interface{}{}),
			wantCode: domain.InvalidParams,
			wantKind: string(domain.KindValidation),
		},
		{
			name:     "positional params",
			req:      request(1, ToolRAWGSearch, []interface{}{"Hollow Knight"}),
			wantCode: domain.InvalidParams,
		},
		{
			name:     "tools/call without params",
			req:      request(1, "tools/call", nil),
			wantCode: domain.InvalidParams,
		},
		{
			name:     "tools/call without name",
			req:      request(1, "tools/call", map[string]interface{}{"arguments": map[string]interface{}{}}),
			wantCode: domain.InvalidParams,
		},
		{
			name:     "tools/call unknown tool",
			req:      request(1, "tools/call", map[string]interface{}{"name": "rawg_trending"}),
			wantCode: domain.MethodNotFound,
		},
		{
			name:     "name resolution miss",
			req:      request(1, ToolRAWGGameDetails, map[string]interface{}{"game_name": "Nonexistent Game Xyz123"}),
			wantCode: domain.NotFoundErrorCode,
			wantKind: string(domain.KindNotFound),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			resp := ts.server.HandleRequest(context.Background(), tt.req)
			require.NotNil(t, resp)
			require.NotNil(t, resp.Error)
			assert.Nil(t, resp.Result)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.req.ID, resp.ID)

			if tt.wantKind != "" {
				data, ok := resp.Error.Data.(map[string]interface{})
				require.True(t, ok, "error data = %#v", resp.Error.Data)
				assert.Equal(t, tt.wantKind, string(data["kind"].(domain.ErrorKind)))
			}
		})
	}
}

func TestServer_ValidationFailureMakesNoUpstreamCall(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.server.HandleRequest(context.Background(), request(1, ToolRAWGSearch, map[string]interface{}{}))

	assert.Equal(t, 0, ts.fetcher.Calls())
}

func TestServer_Notifications(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.Nil(t, ts.server.HandleRequest(context.Background(), request(nil, "notifications/initialized", nil)))
	assert.Nil(t, ts.server.HandleRequest(context.Background(), request(nil, "ping", nil)))
	assert.Nil(t, ts.server.HandleRequest(context.Background(), request(nil, "no_such_method", nil)))
}

func TestServer_RecoversFromHandlerPanic(t *testing.T) {
	handler := &mockHandler{
		name:   "rawg",
		tools:  []domain.ToolDefinition{{Name: "rawg_search"}},
		panics: true,
	}
	server := NewServer(nopTransport{}, NewRequestRouter(handler), domain.NewResponseMapper(), domain.DefaultConfig(), ServerOptions{})

	var resp *domain.Response
	require.NotPanics(t, func() {
		resp = server.HandleRequest(context.Background(), request(1, "rawg_search", nil))
	})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.InternalError, resp.Error.Code)
}

func TestServer_RecordsInteractions(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.server.HandleRequest(context.Background(), request(1, ToolRAWGSearch, map[string]interface{}{"query": "Hollow Knight"}))
	ts.server.HandleRequest(context.Background(), request(2, "tools/call", map[string]interface{}{
		"name":      ToolRAWGGameStores,
		"arguments": map[string]interface{}{"game_name": "Nonexistent"},
	}))
	ts.server.HandleRequest(context.Background(), request(3, "tools/list", nil))

	records := ts.interactions.Records()
	require.Len(t, records, 2)

	assert.NotEmpty(t, records[0].RequestID)
	assert.Equal(t, ToolRAWGSearch, records[0].Method)
	assert.Equal(t, ToolRAWGSearch, records[0].Tool)
	assert.Equal(t, "Hollow Knight", records[0].Arguments["query"])
	assert.NotNil(t, records[0].Result)
	assert.Empty(t, records[0].Error)

	assert.Equal(t, "tools/call", records[1].Method)
	assert.Equal(t, ToolRAWGGameStores, records[1].Tool)
	assert.Equal(t, domain.KindNotFound, records[1].ErrorKind)
	assert.NotEmpty(t, records[1].Error)
	assert.NotEqual(t, records[0].RequestID, records[1].RequestID)

	assert.Equal(t, []string{
		ToolRAWGSearch + "/" + domain.OutcomeSuccess,
		ToolRAWGGameStores + "/" + string(domain.KindNotFound),
	}, ts.metrics.tools)
}

func TestServer_UnknownToolMetricLabel(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.server.HandleRequest(context.Background(), request(1, "tools/call", map[string]interface{}{"name": "rawg_anything_goes"}))

	assert.Equal(t, []string{unknownToolLabel + "/rpc_error"}, ts.metrics.tools)
}

func TestServer_HealthAndInfo(t *testing.T) {
	ts := newTestServer(t, nil)

	health := ts.server.Health()
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.APIKeyConfigured)

	info := ts.server.Info()
	assert.Equal(t, ServerName, info.Name)
	assert.Equal(t, ServerVersion, info.Version)
	assert.Equal(t, []string{
		ToolRAWGSearch, ToolRAWGPopular, ToolRAWGByGenre, ToolRAWGByPlatform,
		ToolRAWGGameDetails, ToolRAWGGameStores, ToolRAWGGameDLCs,
	}, info.Methods)
}

func TestServer_StartOverStdio(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"rawg_search","params":{"query":"Hollow Knight"}}`,
		`not json`,
	}, "\n") + "\n"

	var output bytes.Buffer
	transport := domain.NewStdioTransportWithIO(strings.NewReader(input), &output, zap.NewNop())
	ts := newTestServer(t, transport)

	require.NoError(t, ts.server.Start(context.Background()))
	require.NoError(t, ts.server.Close())
	assert.True(t, ts.interactions.closed)

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(t, lines, 3)

	byID := map[string]map[string]interface{}{}
	for _, line := range lines {
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &decoded))
		byID[fmt.Sprint(decoded["id"])] = decoded
	}

	assert.Contains(t, byID["1"], "result")
	assert.Contains(t, byID["2"], "result")
	parseErr := byID["<nil>"]["error"].(map[string]interface{})
	assert.Equal(t, float64(domain.ParseError), parseErr["code"])
}
