// Package activity provides common infrastructure for Temporal activity
// implementations: workflow context extraction, panic-safe logging, and
// best-effort event emission shared by every domain activity package.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/rvelasq/eval360/pkg/events"
)

// WorkflowContext contains metadata extracted from the Temporal activity
// context. It gives activities a consistent view of the execution they run
// in, with stable fallbacks for test environments.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	TenantID   string
	ActivityID string
}

// testTenantID is the fixed tenant used when no activity context exists, so
// idempotency keys stay stable across test runs.
const testTenantID = "da2978a1-6c37-4d45-9a4c-2d1f5b1f3a10"

// BaseActivities provides the shared plumbing every activity type embeds:
// event emission, context extraction, and heartbeat recording that work in
// both Temporal and test contexts.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities creates a BaseActivities with the provided event sink.
// A nil sink disables emission, which is the normal testing setup.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext safely extracts workflow context from the activity
// context. Inside a Temporal activity it returns the real execution
// details; in test contexts, where activity.GetInfo panics, it falls back
// to deterministic test identifiers.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx.WorkflowID = testTenantID
				wfCtx.RunID = "test-run"
				wfCtx.TenantID = testTenantID
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
		wfCtx.TenantID = tenantFromWorkflowID(info.WorkflowExecution.ID)
	}()

	return wfCtx
}

// tenantFromWorkflowID extracts the tenant from workflow IDs shaped as
// "<tenant>/session-<id>". Workflows started without the tenant prefix fall
// back to the whole ID, which keeps single-tenant deployments working.
func tenantFromWorkflowID(workflowID string) string {
	for i := 0; i < len(workflowID); i++ {
		if workflowID[i] == '/' {
			return workflowID[:i]
		}
	}
	return workflowID
}

// EmitEventSafe provides best-effort event emission with a short retry.
// Event emission must never fail the primary activity operation, so
// failures are logged and swallowed after the retry budget is spent.
func (b *BaseActivities) EmitEventSafe(
	ctx context.Context,
	envelope events.Envelope,
	description string,
) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("Event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("Event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("Failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// RecordHeartbeat safely records a heartbeat in the Temporal activity
// context. Safe to call in non-activity contexts, where it is ignored.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog performs context-safe structured logging that works in both
// activity and test contexts. Outside an activity the call is ignored
// instead of panicking.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError is SafeLog at ERROR level.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat safely records activity heartbeat with details, ignoring
// non-activity contexts.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.RecordHeartbeat(ctx, details...)
}
