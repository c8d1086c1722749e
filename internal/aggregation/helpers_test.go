package aggregation

import (
	"time"

	"github.com/rvelasq/eval360/internal/domain"
	"github.com/rvelasq/eval360/pkg/activity"
	"github.com/rvelasq/eval360/pkg/events"
)

// testDefinition builds a one-category, two-question likert questionnaire
// with a reverse-keyed second question.
func testDefinition() domain.TestDefinition {
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

// testResponse builds a response in the given status answering both
// questions with the given values.
func testResponse(evaluatorID string, evaluatorType domain.EvaluatorType, status domain.ResponseStatus, q1, q2 float64) domain.EvaluatorResponse {
	answeredAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return domain.EvaluatorResponse{
		EvaluatorID:   evaluatorID,
		EvaluatorType: evaluatorType,
		Status:        status,
		Answers: map[string]domain.Answer{
			"q1": {QuestionID: "q1", EvaluatorID: evaluatorID, EvaluatorType: evaluatorType, Value: domain.NumberValue(q1), AnsweredAt: answeredAt},
			"q2": {QuestionID: "q2", EvaluatorID: evaluatorID, EvaluatorType: evaluatorType, Value: domain.NumberValue(q2), AnsweredAt: answeredAt},
		},
	}
}

// testPanel is a submitted panel that clears the test policy's thresholds.
func testPanel() []domain.EvaluatorResponse {
	return []domain.EvaluatorResponse{
		testResponse("manager-1", domain.EvaluatorManager, domain.ResponseSubmitted, 4, 2),
		testResponse("peer-a", domain.EvaluatorPeer, domain.ResponseSubmitted, 4, 2),
		testResponse("peer-b", domain.EvaluatorPeer, domain.ResponseSubmitted, 4, 2),
		testResponse("peer-c", domain.EvaluatorPeer, domain.ResponseSubmitted, 4, 2),
	}
}

// testPolicy thresholds only manager and peer, the types testPanel staffs.
func testPolicy() *domain.ScoringPolicy {
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

// newTestActivities wires activities on a memory store and a capturing sink
// with a limiter generous enough that tests never throttle.
func newTestActivities() (*Activities, *MemoryStore, *events.CaptureSink) {
	sink := &events.CaptureSink{}
	store := NewMemoryStore()
	base := activity.NewBaseActivities(sink)
	acts := NewActivities(base, store, NewRecomputeLimiter(1000, 1000))
	return acts, store, sink
}
