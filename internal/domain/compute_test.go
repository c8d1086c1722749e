package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// computePolicy thresholds only the types the scenario actually staffs, so
// assertions stay about the behavior under test rather than about default
// threshold bookkeeping.
func computePolicy() ScoringPolicy {
	return ScoringPolicy{
		EvaluatorWeights: map[EvaluatorType]float64{
			EvaluatorManager: 0.3,
			EvaluatorPeer:    0.25,
			EvaluatorSelf:    0.1,
		},
		AnonymityThresholds: map[EvaluatorType]int{
			EvaluatorManager: 1,
			EvaluatorPeer:    3,
		},
		LowCompletionPct: 50,
	}
}

func fullPanelResponses() []EvaluatorResponse {
	answers := map[string]float64{"q1": 4, "q2": 2}
	return []EvaluatorResponse{
		submittedResponse("manager-1", EvaluatorManager, answers),
		submittedResponse("peer-a", EvaluatorPeer, answers),
		submittedResponse("peer-b", EvaluatorPeer, answers),
		submittedResponse("peer-c", EvaluatorPeer, answers),
	}
}

func TestComputeEndToEnd(t *testing.T) {
	def := basicDefinition()
	result, err := Compute(def, fullPanelResponses(), computePolicy())
	require.NoError(t, err)

	assert.Equal(t, AggregationCompleted, result.Status)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.ValidationErrors)
	assert.Empty(t, result.Warnings)

	t.Run("per-question aggregates", func(t *testing.T) {
		require.Contains(t, result.AggregatedResponses, "q1")
		require.Contains(t, result.AggregatedResponses, "q2")

		q1 := result.AggregatedResponses["q1"]
		assert.InDelta(t, 4.0, q1.AggregatedScore, 1e-9)
		assert.Equal(t, 4, q1.Statistics.Count)
		assert.True(t, q1.IsValid)

		// q2 is reverse-keyed: raw 2 on a 1-5 scale reflects to 4.
		q2 := result.AggregatedResponses["q2"]
		assert.InDelta(t, 4.0, q2.AggregatedScore, 1e-9)
		assert.Equal(t, []float64{4, 4, 4}, q2.ResponsesByType[EvaluatorPeer])
	})

	t.Run("evaluator type scores", func(t *testing.T) {
		peer := result.ScoresByType[EvaluatorPeer]
		assert.InDelta(t, 4.0, peer.Score, 1e-9)
		assert.Equal(t, 6, peer.Count)
		assert.Equal(t, 2, peer.Questions)

		mgr := result.ScoresByType[EvaluatorManager]
		assert.InDelta(t, 4.0, mgr.Score, 1e-9)
	})

	t.Run("overall score", func(t *testing.T) {
		assert.InDelta(t, 4.0, result.OverallScore, 1e-9)
	})

	t.Run("category rollup", func(t *testing.T) {
		require.Len(t, result.CategoryScores, 1)
		cat := result.CategoryScores[0]
		assert.Equal(t, "cat-leadership", cat.CategoryID)
		require.NotNil(t, cat.Score)
		assert.InDelta(t, 4.0, *cat.Score, 1e-9)
		assert.False(t, cat.IsExcluded)
	})

	t.Run("session metrics", func(t *testing.T) {
		assert.InDelta(t, 100.0, result.Metrics.CompletionRate, 1e-9)
		assert.InDelta(t, 100.0, result.Metrics.ResponseRate, 1e-9)
		assert.InDelta(t, 1.0, result.Metrics.ConsensusIndex, 1e-9)
	})

	t.Run("anonymity", func(t *testing.T) {
		assert.True(t, result.AnonymityStatus.IsValid)
		assert.Equal(t, 4, result.AnonymityStatus.TotalEvaluators)
		assert.Equal(t, 100, result.AnonymityStatus.Checks[EvaluatorPeer].Percentage)
	})
}

func TestComputeIsDeterministic(t *testing.T) {
	def := basicDefinition()
	policy := computePolicy()

	first, err := Compute(def, fullPanelResponses(), policy)
	require.NoError(t, err)
	second, err := Compute(def, fullPanelResponses(), policy)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	t.Run("independent of response order", func(t *testing.T) {
		responses := fullPanelResponses()
		reversed := make([]EvaluatorResponse, 0, len(responses))
		for i := len(responses) - 1; i >= 0; i-- {
			reversed = append(reversed, responses[i])
		}
		shuffled, err := Compute(def, reversed, policy)
		require.NoError(t, err)
		assert.Equal(t, first, shuffled)
	})
}

func TestComputeMultiCategory(t *testing.T) {
	def := &TestDefinition{
		ID:      "leadership-360",
		Version: 1,
		Scale:   likertScale,
		Categories: []Category{
			{ID: "cat-strengths", Name: "Strengths", Weight: 1},
			{ID: "cat-growth", Name: "Growth Areas", Weight: 3},
		},
		Questions: []Question{
			{ID: "s1", Text: "s1", CategoryID: "cat-strengths", Weight: 1, Type: QuestionLikert},
			{ID: "g1", Text: "g1", CategoryID: "cat-growth", Weight: 1, Type: QuestionLikert},
		},
	}
	responses := []EvaluatorResponse{
		submittedResponse("peer-a", EvaluatorPeer, map[string]float64{"s1": 5, "g1": 1}),
		submittedResponse("peer-b", EvaluatorPeer, map[string]float64{"s1": 5, "g1": 1}),
		submittedResponse("peer-c", EvaluatorPeer, map[string]float64{"s1": 5, "g1": 1}),
	}

	result, err := Compute(def, responses, peerOnlyPolicy(3))
	require.NoError(t, err)
	require.Len(t, result.CategoryScores, 2)

	// Each category sees only its own answers: 5 and 1, never their mean.
	strengths, growth := result.CategoryScores[0], result.CategoryScores[1]
	require.NotNil(t, strengths.Score)
	assert.InDelta(t, 5.0, *strengths.Score, 1e-9)
	require.NotNil(t, growth.Score)
	assert.InDelta(t, 1.0, *growth.Score, 1e-9)

	// Category weights flow into the weighted rollup: (5*1 + 1*3) / 4 = 2.
	assert.InDelta(t, 2.0, ComposeCategories(result.CategoryScores), 1e-9)
}

func TestComputeNoResponses(t *testing.T) {
	result, err := Compute(basicDefinition(), nil, computePolicy())
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.ValidationErrors, "No hay respuestas para agregar")
	assert.Zero(t, result.OverallScore)
	assert.Zero(t, result.Metrics.CompletionRate)
}

func TestComputeOnlyTextAnswers(t *testing.T) {
	def := basicDefinition()
	def.Questions = []Question{{
		ID:         "q-open",
		Text:       "Comments?",
		CategoryID: "cat-leadership",
		Weight:     1,
		Type:       QuestionOpenText,
	}}

	r := EvaluatorResponse{
		EvaluatorID:   "peer-a",
		EvaluatorType: EvaluatorPeer,
		Status:        ResponseSubmitted,
		Answers: map[string]Answer{
			"q-open": {QuestionID: "q-open", EvaluatorID: "peer-a", EvaluatorType: EvaluatorPeer, Value: TextValue("muy bien")},
		},
	}

	result, err := Compute(def, []EvaluatorResponse{r}, peerOnlyPolicy(1))
	require.NoError(t, err)

	// Text answers count toward completion but produce no numeric pool,
	// which is the same invalid state as an empty session.
	assert.False(t, result.IsValid)
	assert.Contains(t, result.ValidationErrors, "No hay respuestas para agregar")
	assert.InDelta(t, 100.0, result.Metrics.CompletionRate, 1e-9)
}

func TestComputeAnonymityShortfall(t *testing.T) {
	def := basicDefinition()
	responses := []EvaluatorResponse{
		submittedResponse("peer-a", EvaluatorPeer, map[string]float64{"q1": 4, "q2": 2}),
	}

	result, err := Compute(def, responses, peerOnlyPolicy(3))
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.ValidationErrors, "anonymity threshold not met for peer: 1/3")

	// Scores are still computed; disclosure is the report layer's concern.
	assert.InDelta(t, 4.0, result.OverallScore, 1e-9)
	assert.False(t, result.AnonymityStatus.Checks[EvaluatorPeer].Met)
}

func TestComputeConditionalExclusion(t *testing.T) {
	def := basicDefinition()
	def.Questions = append(def.Questions, Question{
		ID:         "q-manages",
		Text:       "Do you manage people?",
		CategoryID: "cat-leadership",
		Weight:     1,
		Type:       QuestionMultipleChoice,
	})
	def.Categories = append(def.Categories, Category{
		ID:            "cat-people",
		Name:          "People Management",
		Weight:        1,
		IsConditional: true,
		ConditionalRule: &ConditionalRule{
			Condition: RuleCondition{QuestionID: "q-manages", Operator: OpEquals, Value: "no"},
			Action:    ActionExcludeFromScoring,
		},
	})

	self := EvaluatorResponse{
		EvaluatorID:   "self-1",
		EvaluatorType: EvaluatorSelf,
		Status:        ResponseSubmitted,
		Answers: map[string]Answer{
			"q1":        {QuestionID: "q1", EvaluatorID: "self-1", EvaluatorType: EvaluatorSelf, Value: NumberValue(4)},
			"q-manages": {QuestionID: "q-manages", EvaluatorID: "self-1", EvaluatorType: EvaluatorSelf, Value: TextValue("no")},
		},
	}
	peer := EvaluatorResponse{
		EvaluatorID:   "peer-a",
		EvaluatorType: EvaluatorPeer,
		Status:        ResponseSubmitted,
		Answers: map[string]Answer{
			"q1":        {QuestionID: "q1", EvaluatorID: "peer-a", EvaluatorType: EvaluatorPeer, Value: NumberValue(4)},
			"q-manages": {QuestionID: "q-manages", EvaluatorID: "peer-a", EvaluatorType: EvaluatorPeer, Value: TextValue("yes")},
		},
	}

	policy := computePolicy()
	policy.AnonymityThresholds = map[EvaluatorType]int{EvaluatorSelf: 1}
	result, err := Compute(def, []EvaluatorResponse{peer, self}, policy)
	require.NoError(t, err)

	// The self answer wins the rule evaluation despite the peer disagreeing.
	require.Len(t, result.CategoryScores, 2)
	var people CategoryScore
	for _, c := range result.CategoryScores {
		if c.CategoryID == "cat-people" {
			people = c
		}
	}
	assert.True(t, people.IsExcluded)
	assert.Nil(t, people.Score)
	assert.Zero(t, people.TotalWeight)
	assert.NotEmpty(t, people.ExclusionReason)
}

func TestComputeLowCompletionWarning(t *testing.T) {
	def := basicDefinition()
	responses := []EvaluatorResponse{
		submittedResponse("peer-a", EvaluatorPeer, map[string]float64{"q1": 4, "q2": 2}),
		{EvaluatorID: "peer-b", EvaluatorType: EvaluatorPeer, Status: ResponseSubmitted},
		{EvaluatorID: "peer-c", EvaluatorType: EvaluatorPeer, Status: ResponseSubmitted},
	}

	result, err := Compute(def, responses, peerOnlyPolicy(3))
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.InDelta(t, 33.33, result.Metrics.CompletionRate, 1e-9)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "completion rate")
}

func TestComputeStructuralErrors(t *testing.T) {
	t.Run("question referencing unknown category", func(t *testing.T) {
		def := basicDefinition()
		def.Questions[0].CategoryID = "cat-nope"
		_, err := Compute(def, fullPanelResponses(), computePolicy())
		require.ErrorIs(t, err, ErrUnknownCategoryRef)
	})

	t.Run("rule referencing unknown question", func(t *testing.T) {
		def := basicDefinition()
		def.ConditionalRules = []ConditionalRule{{
			Condition:  RuleCondition{QuestionID: "q-ghost", Operator: OpEquals, Value: "no"},
			Action:     ActionExcludeFromScoring,
			CategoryID: "cat-leadership",
		}}
		_, err := Compute(def, fullPanelResponses(), computePolicy())
		require.ErrorIs(t, err, ErrUnknownQuestionRef)
	})

	t.Run("conditional category without rule", func(t *testing.T) {
		def := basicDefinition()
		def.Categories[0].IsConditional = true
		_, err := Compute(def, fullPanelResponses(), computePolicy())
		require.ErrorIs(t, err, ErrMissingConditionalRule)
	})

	t.Run("contract violation in definition", func(t *testing.T) {
		def := basicDefinition()
		def.Questions[0].Weight = 4
		_, err := Compute(def, fullPanelResponses(), computePolicy())
		require.ErrorIs(t, err, ErrInvalidDefinition)
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, err := Compute(basicDefinition(), fullPanelResponses(), ScoringPolicy{})
		require.Error(t, err)
	})
}
