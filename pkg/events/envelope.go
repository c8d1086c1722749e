// Package events provides the generic event infrastructure for domain event
// emission. It defines the Envelope type that wraps scoring events with
// consistent metadata and the EventSink interface events are appended to.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope wraps domain events with consistent metadata for reliable event
// processing. The envelope is the generic container any aggregation event
// travels in, carrying the fields projections need for routing,
// deduplication, and per-organization filtering.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing and processing.
	// Examples: "AggregationCompleted", "AggregationFailed".
	Type string `json:"type"`

	// Source identifies the component that emitted this event.
	Source string `json:"source"`

	// Version enables schema evolution, following semantic versioning.
	Version string `json:"version"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey ensures exactly-once processing during retries.
	IdempotencyKey string `json:"idempotency_key"`

	// TenantID identifies the organization for multi-tenant filtering.
	TenantID string `json:"tenant_id"`

	// WorkflowID identifies the workflow that triggered this event.
	WorkflowID string `json:"workflow_id"`

	// RunID identifies the specific workflow execution run.
	RunID string `json:"run_id"`

	// Payload contains the event-specific data as JSON.
	Payload json.RawMessage `json:"payload"`
}

// EventSink is the interface events are appended to. Implementations range
// from database outbox tables to message brokers to plain log output.
// Implementations should treat duplicate idempotency keys as no-ops and
// return quickly; events matter for observability, not for correctness, so
// callers never fail their primary operation over a sink error.
type EventSink interface {
	// Append adds an event to the sink with best-effort delivery.
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink is a null EventSink for tests or disabled event emission.
type NoOpEventSink struct{}

// Append implements EventSink with no-op behavior.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a new no-op event sink.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }

// CaptureSink is an in-memory EventSink that records every appended
// envelope, for tests that assert on emitted events.
type CaptureSink struct {
	Envelopes []Envelope
}

// Append implements EventSink by recording the envelope.
func (c *CaptureSink) Append(_ context.Context, envelope Envelope) error {
	c.Envelopes = append(c.Envelopes, envelope)
	return nil
}
