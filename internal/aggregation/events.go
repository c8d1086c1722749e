package aggregation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rvelasq/eval360/internal/domain"
	"github.com/rvelasq/eval360/pkg/activity"
	"github.com/rvelasq/eval360/pkg/events"
)

// EventEmitter handles domain event emission for aggregation operations.
// It bridges domain event creation and the base activity event
// infrastructure. All emission is best-effort: a sink failure is logged and
// never fails the computing activity.
type EventEmitter struct{ base activity.BaseActivities }

// NewEventEmitter creates an EventEmitter on the base activity
// infrastructure.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitAggregationCompleted emits the completion event for a computed
// session, valid or not.
func (e *EventEmitter) EmitAggregationCompleted(
	ctx context.Context,
	sessionID string,
	result *domain.AggregationResult,
	wfCtx activity.WorkflowContext,
	clientIdemKey string,
) {
	tenantID, err := parseUUID(wfCtx.TenantID, "tenant")
	if err != nil {
		activity.SafeLogError(ctx, "Failed to parse tenant ID for AggregationCompleted event",
			"tenant_id", wfCtx.TenantID,
			"error", err)
		return
	}

	domainEvent, err := domain.NewAggregationCompletedEvent(
		tenantID, wfCtx.WorkflowID, wfCtx.RunID, sessionID, result, clientIdemKey)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to create AggregationCompleted event",
			"session_id", sessionID,
			"error", err)
		return
	}

	e.base.EmitEventSafe(ctx, toEnvelope(domainEvent), "AggregationCompleted")
}

// EmitAggregationFailed emits the failure event for a session whose
// aggregation aborted on malformed input.
func (e *EventEmitter) EmitAggregationFailed(
	ctx context.Context,
	sessionID string,
	computeErr error,
	wfCtx activity.WorkflowContext,
	clientIdemKey string,
) {
	tenantID, err := parseUUID(wfCtx.TenantID, "tenant")
	if err != nil {
		activity.SafeLogError(ctx, "Failed to parse tenant ID for AggregationFailed event",
			"tenant_id", wfCtx.TenantID,
			"error", err)
		return
	}

	domainEvent, err := domain.NewAggregationFailedEvent(
		tenantID, wfCtx.WorkflowID, wfCtx.RunID, sessionID, computeErr, clientIdemKey)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to create AggregationFailed event",
			"session_id", sessionID,
			"error", err)
		return
	}

	e.base.EmitEventSafe(ctx, toEnvelope(domainEvent), "AggregationFailed")
}

// parseUUID parses a string as UUID with a descriptive error.
func parseUUID(input, context string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s UUID '%s': %w", context, input, err)
	}
	return parsed, nil
}

// toEnvelope converts a domain.EventEnvelope to the generic transport
// envelope used by the event infrastructure.
func toEnvelope(domainEvent domain.EventEnvelope) events.Envelope {
	return events.Envelope{
		ID:             domainEvent.IdempotencyKey,
		Type:           string(domainEvent.EventType),
		Source:         domainEvent.Producer,
		Version:        fmt.Sprintf("%d.0.0", domainEvent.Version),
		Timestamp:      domainEvent.OccurredAt,
		IdempotencyKey: domainEvent.IdempotencyKey,
		TenantID:       domainEvent.TenantID.String(),
		WorkflowID:     domainEvent.WorkflowID,
		RunID:          domainEvent.RunID,
		Payload:        domainEvent.Payload,
	}
}
