package domain

import "time"

// Outcome labels shared by the metrics implementations.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics receives counters and timings from the catalog client and the server.
type Metrics interface {
	// ObserveUpstream records one catalog call. outcome is OutcomeSuccess or
	// the ErrorKind of the failure.
	ObserveUpstream(operation string, outcome string, duration time.Duration)

	// ObserveRateLimitWait records how long a call waited for its turn.
	ObserveRateLimitWait(duration time.Duration)

	// ObserveToolCall records one tool invocation.
	ObserveToolCall(tool string, outcome string, duration time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveUpstream(string, string, time.Duration) {}
func (NopMetrics) ObserveRateLimitWait(time.Duration)            {}
func (NopMetrics) ObserveToolCall(string, string, time.Duration) {}

var _ Metrics = NopMetrics{}
