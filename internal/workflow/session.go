// Package workflow orchestrates session aggregation using Temporal
// workflows. The workflow is thin by design: it validates the request,
// establishes retry policy, and delegates all computation to the
// aggregation activity, keeping the deterministic-execution constraints of
// workflow code trivially satisfied.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/rvelasq/eval360/internal/aggregation"
	"github.com/rvelasq/eval360/internal/domain"
)

// Default activity timing. A session aggregation is an in-memory
// computation plus two store round-trips; a minute is generous.
const (
	defaultActivityTimeout  = time.Minute
	defaultHeartbeatTimeout = 30 * time.Second
	maxActivityAttempts     = 3
)

// SessionAggregationRequest is the workflow input: one session's frozen
// definition snapshot and its responses.
type SessionAggregationRequest struct {
	// SessionID identifies the evaluation session.
	SessionID string `json:"session_id"`

	// Definition is the questionnaire snapshot frozen onto the session.
	Definition domain.TestDefinition `json:"definition"`

	// Responses are the session's evaluator responses, any status.
	Responses []domain.EvaluatorResponse `json:"responses"`

	// Policy optionally overrides the shipped scoring policy.
	Policy *domain.ScoringPolicy `json:"policy,omitempty"`

	// Force recomputes even when the stored record already matches.
	Force bool `json:"force"`
}

// SessionAggregationWorkflow computes and records the aggregation for one
// evaluation session. Retries cover transient store failures and
// throttling; malformed input fails the workflow with the structural error
// attached, which the trigger handler persists as a failed aggregation.
func SessionAggregationWorkflow(
	ctx workflow.Context,
	req SessionAggregationRequest,
) (*aggregation.ComputeAggregationOutput, error) {
	// Version gate enables safe evolution of the workflow logic.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "session-aggregation.v", workflow.DefaultVersion, currentVersion)

	if req.SessionID == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			"session id is required", "Validation", nil)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: defaultActivityTimeout,
		HeartbeatTimeout:    defaultHeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    maxActivityAttempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	input := aggregation.ComputeAggregationInput{
		SessionID:  req.SessionID,
		Definition: req.Definition,
		Responses:  req.Responses,
		Policy:     req.Policy,
		Force:      req.Force,
	}

	var activities *aggregation.Activities
	var output aggregation.ComputeAggregationOutput
	if err := workflow.ExecuteActivity(ctx, activities.ComputeAggregation, input).Get(ctx, &output); err != nil {
		return nil, err
	}

	return &output, nil
}
