// Package aggregation implements the Temporal activity that computes
// session aggregations. It wraps the pure scoring engine in internal/domain
// with the concerns the serverless boundary owns: input validation,
// duplicate-trigger deduplication against the aggregation store, recompute
// throttling, event emission, and retry classification.
package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/rvelasq/eval360/internal/domain"
	pkgactivity "github.com/rvelasq/eval360/pkg/activity"
)

// ComputeAggregationInput is the activity contract for one session
// aggregation run.
type ComputeAggregationInput struct {
	// SessionID identifies the evaluation session being aggregated.
	SessionID string `json:"session_id" validate:"required"`

	// Definition is the frozen questionnaire snapshot for the session,
	// never the live mutable document.
	Definition domain.TestDefinition `json:"definition" validate:"required"`

	// Responses are the session's evaluator responses. Draft entries are
	// filtered out here at the boundary; the engine sees submitted only.
	Responses []domain.EvaluatorResponse `json:"responses"`

	// Policy carries the tenant's scoring policy. The zero value selects
	// the shipped defaults.
	Policy *domain.ScoringPolicy `json:"policy,omitempty"`

	// Force recomputes and overwrites even when a stored aggregation with
	// the same input fingerprint already exists.
	Force bool `json:"force"`
}

// Validate checks the input against its contract tags.
func (i *ComputeAggregationInput) Validate() error { return validate.Struct(i) }

// ComputeAggregationOutput is the activity result.
type ComputeAggregationOutput struct {
	// Result is the aggregation record, freshly computed or served from the
	// store when the trigger was a duplicate.
	Result *domain.AggregationResult `json:"result" validate:"required"`

	// Fingerprint is the deterministic identity of the input set that
	// produced Result.
	Fingerprint string `json:"fingerprint" validate:"required"`

	// Deduplicated is true when a duplicate trigger was answered from the
	// store without recomputing.
	Deduplicated bool `json:"deduplicated"`
}

// Validate checks the output against its contract tags.
func (o *ComputeAggregationOutput) Validate() error { return validate.Struct(o) }

// Activities handles aggregation-specific Temporal activities. It owns the
// write-side deduplication the engine's idempotence contract requires: the
// pure computation is safe to run concurrently, so the only coordination
// needed is a single consistency-bearing check against the store before any
// write.
type Activities struct {
	pkgactivity.BaseActivities
	store   AggregationStore
	events  *EventEmitter
	limiter *RecomputeLimiter
}

// NewActivities creates aggregation activities with the provided
// dependencies. The store may be nil, in which case every trigger
// recomputes; the limiter may be nil to disable throttling.
func NewActivities(base pkgactivity.BaseActivities, store AggregationStore, limiter *RecomputeLimiter) *Activities {
	return &Activities{
		BaseActivities: base,
		store:          store,
		events:         NewEventEmitter(base),
		limiter:        limiter,
	}
}

// ComputeAggregation computes the aggregation record for one evaluation
// session.
//
// The operation:
//  1. Validates the input contract.
//  2. Filters to submitted responses.
//  3. Fingerprints the input set for deduplication.
//  4. Answers duplicate triggers from the store without recomputing.
//  5. Runs the pure engine.
//  6. Writes the record: a stale record from older inputs is overwritten,
//     an absent key is written with NX, and a concurrent worker that wrote
//     the same fingerprint first wins gracefully.
//  7. Emits AggregationCompleted / AggregationFailed events, best-effort.
//
// Structural input errors are non-retryable: retrying a malformed
// definition cannot succeed, so the workflow marks the session failed and
// stores the message. Throttling is retryable.
func (a *Activities) ComputeAggregation(
	ctx context.Context,
	input ComputeAggregationInput,
) (*ComputeAggregationOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable("ComputeAggregation", err, "invalid input")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	pkgactivity.SafeLog(ctx, "Starting ComputeAggregation activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"session_id", input.SessionID,
		"responses", len(input.Responses))

	if a.limiter != nil && !a.limiter.Allow(wfCtx.TenantID) {
		return nil, retryable("ComputeAggregation",
			fmt.Errorf("recompute limit reached for tenant %s", wfCtx.TenantID),
			"recompute throttled")
	}

	submitted := submittedOnly(input.Responses)
	policy := domain.DefaultScoringPolicy()
	if input.Policy != nil {
		policy = *input.Policy
	}

	fingerprint, err := Fingerprint(input.SessionID, &input.Definition, submitted, policy)
	if err != nil {
		return nil, nonRetryable("ComputeAggregation", err, "failed to fingerprint input")
	}

	// Happens-before read: a duplicate document-update trigger for inputs
	// already aggregated is answered from the store without recomputing. A
	// record whose fingerprint no longer matches was derived from older
	// inputs; the fresh computation supersedes it so later duplicates of the
	// new inputs deduplicate again.
	supersede := input.Force
	if a.store != nil && !input.Force {
		existing, err := a.store.Get(ctx, input.SessionID)
		if err == nil && existing.Fingerprint == fingerprint {
			pkgactivity.SafeLog(ctx, "Duplicate trigger answered from store",
				"session_id", input.SessionID,
				"fingerprint", fingerprint)
			return &ComputeAggregationOutput{
				Result:       existing.Result,
				Fingerprint:  fingerprint,
				Deduplicated: true,
			}, nil
		}
		if err == nil {
			supersede = true
		}
		if err != nil && err != ErrAggregationNotFound {
			return nil, retryable("ComputeAggregation", err, "aggregation store read failed")
		}
	}

	a.RecordHeartbeat(ctx, fmt.Sprintf("Aggregating session %s", input.SessionID))

	result, err := domain.Compute(&input.Definition, submitted, policy)
	if err != nil {
		a.events.EmitAggregationFailed(ctx, input.SessionID, err, wfCtx, fingerprint)
		return nil, nonRetryable("ComputeAggregation", err, "aggregation failed")
	}

	if a.store != nil {
		record := StoredAggregation{
			SessionID:   input.SessionID,
			Fingerprint: fingerprint,
			Result:      result,
			ComputedAt:  time.Now().UTC(),
		}
		stored, wrote, err := a.store.PutIfAbsent(ctx, record, supersede)
		if err != nil {
			return nil, retryable("ComputeAggregation", err, "aggregation store write failed")
		}
		if !wrote && stored.Fingerprint == fingerprint {
			// A concurrent worker computed the same inputs first. The engine
			// is deterministic, so their record is ours.
			result = stored.Result
		}
	}

	output := &ComputeAggregationOutput{
		Result:      result,
		Fingerprint: fingerprint,
	}
	if err := output.Validate(); err != nil {
		return nil, nonRetryable("ComputeAggregation", err, "invalid output")
	}

	a.events.EmitAggregationCompleted(ctx, input.SessionID, result, wfCtx, fingerprint)

	pkgactivity.SafeLog(ctx, "ComputeAggregation completed",
		"session_id", input.SessionID,
		"overall_score", result.OverallScore,
		"is_valid", result.IsValid,
		"validation_errors", len(result.ValidationErrors))

	return output, nil
}

// submittedOnly filters the responses to submitted entries, the only status
// the engine contract accepts.
func submittedOnly(responses []domain.EvaluatorResponse) []domain.EvaluatorResponse {
	out := make([]domain.EvaluatorResponse, 0, len(responses))
	for _, r := range responses {
		if r.Status == domain.ResponseSubmitted {
			out = append(out, r)
		}
	}
	return out
}

// Fingerprint derives the deterministic identity of an aggregation input
// set. Two triggers carrying the same session, definition snapshot,
// submitted responses, and policy produce the same fingerprint, which is
// what the store deduplicates on.
func Fingerprint(
	sessionID string,
	def *domain.TestDefinition,
	responses []domain.EvaluatorResponse,
	policy domain.ScoringPolicy,
) (string, error) {
	canonical := struct {
		SessionID  string                     `json:"session_id"`
		Definition *domain.TestDefinition     `json:"definition"`
		Responses  []domain.EvaluatorResponse `json:"responses"`
		Weights    []float64                  `json:"weights"`
		Thresholds []int                      `json:"thresholds"`
	}{SessionID: sessionID, Definition: def, Responses: responses}

	for _, t := range domain.EvaluatorTypes {
		canonical.Weights = append(canonical.Weights, policy.EvaluatorWeights[t])
		canonical.Thresholds = append(canonical.Thresholds, policy.AnonymityThresholds[t])
	}

	payload, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fingerprint input: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, payload).String(), nil
}

// retryable wraps transient failures as retryable Temporal application errors.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}

// nonRetryable wraps permanent failures so Temporal does not retry them.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
