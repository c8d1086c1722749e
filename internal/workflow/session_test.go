package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/rvelasq/eval360/internal/aggregation"
	"github.com/rvelasq/eval360/internal/domain"
	"github.com/rvelasq/eval360/pkg/activity"
)

func TestSessionAggregationWorkflow(t *testing.T) {
	t.Run("computes and returns the aggregation", func(t *testing.T) {
		env := newTestEnv(t)

		env.ExecuteWorkflow(SessionAggregationWorkflow, SessionAggregationRequest{
			SessionID:  "session-1",
			Definition: workflowDefinition(),
			Responses:  workflowPanel(),
			Policy:     workflowPolicy(),
		})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var output aggregation.ComputeAggregationOutput
		require.NoError(t, env.GetWorkflowResult(&output))
		require.NotNil(t, output.Result)
		assert.True(t, output.Result.IsValid)
		assert.InDelta(t, 4.0, output.Result.OverallScore, 1e-9)
		assert.NotEmpty(t, output.Fingerprint)
		assert.False(t, output.Deduplicated)
	})

	t.Run("missing session id fails without retrying", func(t *testing.T) {
		env := newTestEnv(t)

		env.ExecuteWorkflow(SessionAggregationWorkflow, SessionAggregationRequest{
			Definition: workflowDefinition(),
			Responses:  workflowPanel(),
		})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Validation", appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("structural input error fails the workflow", func(t *testing.T) {
		env := newTestEnv(t)

		def := workflowDefinition()
		def.Questions[0].CategoryID = "cat-nope"

		env.ExecuteWorkflow(SessionAggregationWorkflow, SessionAggregationRequest{
			SessionID:  "session-1",
			Definition: def,
			Responses:  workflowPanel(),
			Policy:     workflowPolicy(),
		})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "ComputeAggregation", appErr.Type())
	})

	t.Run("invalid data completes with an invalid record", func(t *testing.T) {
		env := newTestEnv(t)

		// One peer against a threshold of three is a data-quality finding,
		// not a workflow failure.
		env.ExecuteWorkflow(SessionAggregationWorkflow, SessionAggregationRequest{
			SessionID:  "session-1",
			Definition: workflowDefinition(),
			Responses:  workflowPanel()[:2],
			Policy:     workflowPolicy(),
		})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var output aggregation.ComputeAggregationOutput
		require.NoError(t, env.GetWorkflowResult(&output))
		assert.False(t, output.Result.IsValid)
		assert.NotEmpty(t, output.Result.ValidationErrors)
	})
}

// newTestEnv builds a workflow test environment with the real aggregation
// activity registered on an in-memory store.
func newTestEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()

	var testSuite testsuite.WorkflowTestSuite
	env := testSuite.NewTestWorkflowEnvironment()

	acts := aggregation.NewActivities(
		activity.NewBaseActivities(nil),
		aggregation.NewMemoryStore(),
		aggregation.NewRecomputeLimiter(1000, 1000),
	)
	env.RegisterActivity(acts.ComputeAggregation)

	return env
}

func workflowDefinition() domain.TestDefinition {
	return domain.TestDefinition{
		ID:      "leadership-360",
		Version: 1,
		Scale:   domain.Scale{Min: 1, Max: 5},
		Categories: []domain.Category{
			{
				ID:     "cat-leadership",
				Name:   "Leadership",
				Weight: 1,
				Subdimensions: []domain.Subdimension{
					{ID: "sd-communication", Name: "Communication", Weight: 1},
				},
			},
		},
		Questions: []domain.Question{
			{
				ID:             "q1",
				Text:           "Communicates goals clearly",
				CategoryID:     "cat-leadership",
				SubdimensionID: "sd-communication",
				Weight:         1,
				Type:           domain.QuestionLikert,
			},
			{
				ID:             "q2",
				Text:           "Avoids sharing relevant information",
				CategoryID:     "cat-leadership",
				SubdimensionID: "sd-communication",
				Weight:         2,
				IsNegative:     true,
				Type:           domain.QuestionLikert,
			},
		},
	}
}

func workflowPanel() []domain.EvaluatorResponse {
	response := func(id string, evalType domain.EvaluatorType) domain.EvaluatorResponse {
		answeredAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		return domain.EvaluatorResponse{
			EvaluatorID:   id,
			EvaluatorType: evalType,
			Status:        domain.ResponseSubmitted,
			Answers: map[string]domain.Answer{
				"q1": {QuestionID: "q1", EvaluatorID: id, EvaluatorType: evalType, Value: domain.NumberValue(4), AnsweredAt: answeredAt},
				"q2": {QuestionID: "q2", EvaluatorID: id, EvaluatorType: evalType, Value: domain.NumberValue(2), AnsweredAt: answeredAt},
			},
		}
	}
	return []domain.EvaluatorResponse{
		response("manager-1", domain.EvaluatorManager),
		response("peer-a", domain.EvaluatorPeer),
		response("peer-b", domain.EvaluatorPeer),
		response("peer-c", domain.EvaluatorPeer),
	}
}

func workflowPolicy() *domain.ScoringPolicy {
	return &domain.ScoringPolicy{
		EvaluatorWeights: map[domain.EvaluatorType]float64{
			domain.EvaluatorManager: 0.3,
			domain.EvaluatorPeer:    0.25,
		},
		AnonymityThresholds: map[domain.EvaluatorType]int{
			domain.EvaluatorManager: 1,
			domain.EvaluatorPeer:    3,
		},
		LowCompletionPct: 50,
	}
}
