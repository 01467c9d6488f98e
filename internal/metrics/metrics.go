// Package metrics provides instrumentation hooks and their Prometheus implementation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// IncAuthEvent counts one auth service call. outcome is "ok" or an error kind
	// such as "conflict" or "forbidden".
	IncAuthEvent(operation, outcome string)
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthEvent is a no-op.
func (n *NoopRecorder) IncAuthEvent(operation, outcome string) {}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
