package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies an event emitted by the aggregation pipeline.
type EventType string

const (
	// EventTypeAggregationCompleted is emitted when a session aggregation
	// computes successfully, valid or not.
	EventTypeAggregationCompleted EventType = "AggregationCompleted"

	// EventTypeAggregationFailed is emitted when malformed input aborts a
	// session aggregation.
	EventTypeAggregationFailed EventType = "AggregationFailed"
)

// EventEnvelope wraps aggregation events with consistent metadata for
// projection processing: tenant scoping, idempotency, and workflow
// correlation.
type EventEnvelope struct {
	// IdempotencyKey ensures events are processed exactly once during
	// retries. Generated deterministically from workflow context and event
	// content.
	IdempotencyKey string `json:"idempotency_key" validate:"required"`

	// EventType identifies the event for routing and processing.
	EventType EventType `json:"event_type" validate:"required"`

	// Version enables event schema evolution. Starts at 1.
	Version int `json:"version" validate:"required,min=1"`

	// OccurredAt records when the event occurred.
	OccurredAt time.Time `json:"occurred_at" validate:"required"`

	// TenantID identifies the organization for multi-tenant filtering.
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`

	// SessionID identifies the evaluation session the event concerns.
	SessionID string `json:"session_id" validate:"required"`

	// WorkflowID identifies the workflow execution that produced the event.
	WorkflowID string `json:"workflow_id" validate:"required"`

	// RunID identifies the specific workflow run.
	RunID string `json:"run_id" validate:"required"`

	// Payload contains the event-specific data as JSON.
	Payload json.RawMessage `json:"payload" validate:"required"`

	// Producer identifies the emitting component.
	Producer string `json:"producer" validate:"required"`
}

// Validate checks the envelope against its contract tags.
func (e *EventEnvelope) Validate() error { return validate.Struct(e) }

// AggregationCompletedPayload is the data carried by AggregationCompleted
// events.
type AggregationCompletedPayload struct {
	// SessionID identifies the aggregated session.
	SessionID string `json:"session_id" validate:"required"`

	// OverallScore is the composed overall score.
	OverallScore float64 `json:"overall_score"`

	// IsValid reports whether the aggregation passed final validation.
	IsValid bool `json:"is_valid"`

	// TotalEvaluators counts the responses aggregated.
	TotalEvaluators int `json:"total_evaluators" validate:"min=0"`

	// AnonymityMet reports whether every threshold was satisfied.
	AnonymityMet bool `json:"anonymity_met"`

	// ValidationErrors carries the blocking findings, if any.
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// Validate checks the payload against its contract tags.
func (p *AggregationCompletedPayload) Validate() error { return validate.Struct(p) }

// AggregationFailedPayload is the data carried by AggregationFailed events.
type AggregationFailedPayload struct {
	// SessionID identifies the session whose aggregation aborted.
	SessionID string `json:"session_id" validate:"required"`

	// Error is the structural-input error message persisted with the
	// failed record.
	Error string `json:"error" validate:"required"`
}

// Validate checks the payload against its contract tags.
func (p *AggregationFailedPayload) Validate() error { return validate.Struct(p) }

// GenerateIdempotencyKey creates a deterministic key for event
// deduplication by hashing the client idempotency key with an
// event-specific suffix. Retries and replays of the same logical event
// always produce the same key.
func GenerateIdempotencyKey(clientIdempotencyKey, eventSuffix string) string {
	hasher := sha256.New()
	hasher.Write([]byte(clientIdempotencyKey + eventSuffix))
	return hex.EncodeToString(hasher.Sum(nil))
}

// AggregationCompletedIdempotencyKey derives the completed-event key:
// H(client_idem_key || ":aggregated:" || session).
func AggregationCompletedIdempotencyKey(clientIdempotencyKey, sessionID string) string {
	return GenerateIdempotencyKey(clientIdempotencyKey, ":aggregated:"+sessionID)
}

// AggregationFailedIdempotencyKey derives the failed-event key:
// H(client_idem_key || ":failed:" || session).
func AggregationFailedIdempotencyKey(clientIdempotencyKey, sessionID string) string {
	return GenerateIdempotencyKey(clientIdempotencyKey, ":failed:"+sessionID)
}

// NewAggregationCompletedEvent builds the envelope emitted after a
// successful computation.
func NewAggregationCompletedEvent(
	tenantID uuid.UUID,
	workflowID, runID, sessionID string,
	result *AggregationResult,
	clientIdempotencyKey string,
) (EventEnvelope, error) {
	payload := AggregationCompletedPayload{
		SessionID:        sessionID,
		OverallScore:     result.OverallScore,
		IsValid:          result.IsValid,
		TotalEvaluators:  result.AnonymityStatus.TotalEvaluators,
		AnonymityMet:     result.AnonymityStatus.IsValid,
		ValidationErrors: result.ValidationErrors,
	}
	if err := payload.Validate(); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid aggregation completed payload: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	envelope := EventEnvelope{
		EventType:      EventTypeAggregationCompleted,
		Version:        1,
		OccurredAt:     time.Now(),
		TenantID:       tenantID,
		SessionID:      sessionID,
		WorkflowID:     workflowID,
		RunID:          runID,
		Payload:        payloadJSON,
		Producer:       "activity.compute_aggregation",
		IdempotencyKey: AggregationCompletedIdempotencyKey(clientIdempotencyKey, sessionID),
	}

	if err := envelope.Validate(); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid event envelope: %w", err)
	}
	return envelope, nil
}

// NewAggregationFailedEvent builds the envelope emitted when structural
// input aborts a computation.
func NewAggregationFailedEvent(
	tenantID uuid.UUID,
	workflowID, runID, sessionID string,
	computeErr error,
	clientIdempotencyKey string,
) (EventEnvelope, error) {
	payload := AggregationFailedPayload{
		SessionID: sessionID,
		Error:     computeErr.Error(),
	}
	if err := payload.Validate(); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid aggregation failed payload: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	envelope := EventEnvelope{
		EventType:      EventTypeAggregationFailed,
		Version:        1,
		OccurredAt:     time.Now(),
		TenantID:       tenantID,
		SessionID:      sessionID,
		WorkflowID:     workflowID,
		RunID:          runID,
		Payload:        payloadJSON,
		Producer:       "activity.compute_aggregation",
		IdempotencyKey: AggregationFailedIdempotencyKey(clientIdempotencyKey, sessionID),
	}

	if err := envelope.Validate(); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid event envelope: %w", err)
	}
	return envelope, nil
}
