package domain

import "time"

// InteractionRecord is one tool call as written to the interaction log.
type InteractionRecord struct {
	RequestID string
	Timestamp time.Time
	Method    string // JSON-RPC method, e.g. "tools/call" or "rawg_search"
	Tool      string
	Arguments map[string]interface{}
	Result    interface{}
	ErrorKind ErrorKind
	Error     string
	Duration  time.Duration
}

// InteractionLogger appends interaction records to a write-only store.
// Record must not block the caller on anything slower than a local write.
type InteractionLogger interface {
	Record(record InteractionRecord)
	Close() error
}

// NopInteractionLogger drops every record.
type NopInteractionLogger struct{}

func (NopInteractionLogger) Record(InteractionRecord) {}
func (NopInteractionLogger) Close() error             { return nil }
