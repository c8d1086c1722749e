package domain

import "time"

// likertScale is the standard five-point scale used across tests.
var likertScale = Scale{Min: 1, Max: 5}

// basicDefinition builds a single-category questionnaire: one subdimension
// (weight 1) with two likert questions, the second reverse-keyed with
// weight 2.
func basicDefinition() *TestDefinition {
	return &TestDefinition{
		ID:      "leadership-360",
		Version: 1,
		Scale:   likertScale,
		Categories: []Category{
			{
				ID:     "cat-leadership",
				Name:   "Leadership",
				Weight: 1,
				Subdimensions: []Subdimension{
					{ID: "sd-communication", Name: "Communication", Weight: 1},
				},
			},
		},
		Questions: []Question{
			{
				ID:             "q1",
				Text:           "Communicates goals clearly",
				CategoryID:     "cat-leadership",
				SubdimensionID: "sd-communication",
				Weight:         1,
				Type:           QuestionLikert,
			},
			{
				ID:             "q2",
				Text:           "Avoids sharing relevant information",
				CategoryID:     "cat-leadership",
				SubdimensionID: "sd-communication",
				Weight:         2,
				IsNegative:     true,
				Type:           QuestionLikert,
			},
		},
	}
}

// submittedResponse builds a submitted response answering the given
// question ids with numeric values.
func submittedResponse(evaluatorID string, evaluatorType EvaluatorType, values map[string]float64) EvaluatorResponse {
	answers := make(map[string]Answer, len(values))
	for qid, v := range values {
		answers[qid] = Answer{
			QuestionID:    qid,
			EvaluatorID:   evaluatorID,
			EvaluatorType: evaluatorType,
			Value:         NumberValue(v),
			AnsweredAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		}
	}
	return EvaluatorResponse{
		EvaluatorID:   evaluatorID,
		EvaluatorType: evaluatorType,
		Status:        ResponseSubmitted,
		Answers:       answers,
	}
}

// peerOnlyPolicy gates peers at the given threshold and weighs them alone.
// Tests that exercise a single evaluator type use it to keep the other
// default thresholds out of the assertion.
func peerOnlyPolicy(threshold int) ScoringPolicy {
	return ScoringPolicy{
		EvaluatorWeights:    map[EvaluatorType]float64{EvaluatorPeer: 0.25},
		AnonymityThresholds: map[EvaluatorType]int{EvaluatorPeer: threshold},
		LowCompletionPct:    50,
	}
}
