package domain

import (
	"fmt"
	"sort"
)

// msgNoResponses is stored verbatim in production aggregation records; the
// reporting UI and historical data both match on it.
const msgNoResponses = "No hay respuestas para agregar"

// Compute runs the full aggregation pipeline for one evaluation session:
// anonymity gate, per-question rollups, evaluator-type scores, conditional
// category exclusion, category/subdimension rollups, overall composition,
// metrics, and final validation.
//
// Compute is referentially transparent: the same definition snapshot,
// response set, and policy always produce a deep-equal result, so it is
// safe to call concurrently from multiple workers as long as writes are
// deduplicated by the caller. Malformed structural input (bad definition,
// dangling rule references) returns an error; data-quality conditions such
// as too few responses or unmet anonymity thresholds are reported inside
// the result, never as errors.
func Compute(def *TestDefinition, responses []EvaluatorResponse, policy ScoringPolicy) (*AggregationResult, error) {
	if err := def.ValidateStructure(); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}

	// Stable response order keeps every derived slice deterministic
	// regardless of how the caller assembled the input.
	ordered := make([]EvaluatorResponse, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EvaluatorID < ordered[j].EvaluatorID
	})

	anonymity := ValidateAnonymity(ordered, policy.AnonymityThresholds)

	aggregates, pool := aggregateQuestions(def, ordered)
	scoresByType := ScoresByType(aggregates)
	overall := Round2(ComposeOverall(scoresByType, policy))

	ruleAnswers := ruleAnswerSet(def, ordered)
	excluded := ExcludedCategories(def, ruleAnswers)
	consensus := consensusAnswerSet(def, ordered)

	categoryScores := make([]CategoryScore, 0, len(def.Categories))
	for _, cat := range def.Categories {
		reason, isExcluded := excluded[cat.ID]
		categoryScores = append(categoryScores,
			ScoreCategory(cat, def.QuestionsForCategory(cat.ID), consensus, def.Scale, isExcluded, reason))
	}

	result := &AggregationResult{
		Status:              AggregationCompleted,
		AggregatedResponses: indexAggregates(aggregates),
		ScoresByType:        scoresByType,
		CategoryScores:      categoryScores,
		OverallScore:        overall,
		Metrics:             computeMetrics(def, ordered, pool),
		AnonymityStatus:     anonymity,
	}

	validateResult(result, def, ordered, pool, policy)
	return result, nil
}

// aggregateQuestions builds the per-question rollups and the flattened
// normalized value pool used by session-level consensus.
func aggregateQuestions(def *TestDefinition, responses []EvaluatorResponse) ([]QuestionAggregate, []float64) {
	aggregates := make([]QuestionAggregate, 0, len(def.Questions))
	var pool []float64

	for _, q := range def.Questions {
		agg := QuestionAggregate{
			QuestionID:      q.ID,
			ResponsesByType: make(map[EvaluatorType][]float64),
		}

		var values []float64
		for _, r := range responses {
			value := r.AnswerFor(q.ID)
			if value.IsAbsent() {
				continue
			}
			normalized := NormalizeForQuestion(value, q, def.Scale)
			if normalized == nil {
				continue
			}
			values = append(values, *normalized)
			t := bucketType(r, q.ID)
			agg.ResponsesByType[t] = append(agg.ResponsesByType[t], *normalized)
		}

		agg.Statistics = ComputeStatistics(values)
		agg.AggregatedScore = agg.Statistics.Mean
		agg.IsValid = len(values) > 0
		pool = append(pool, values...)
		aggregates = append(aggregates, agg)
	}

	return aggregates, pool
}

// bucketType resolves the evaluator type bucket for a response's answer.
// Answers carry their own type for historical imports; the response's type
// is the fallback.
func bucketType(r EvaluatorResponse, questionID string) EvaluatorType {
	if a, ok := r.Answers[questionID]; ok && a.EvaluatorType != "" {
		return a.EvaluatorType
	}
	return r.EvaluatorType
}

// ruleAnswerSet assembles the answer set conditional rules evaluate against.
// Rules reference the evaluatee's own circumstances ("do you manage
// people?"), so the self response wins; without one, the first responder in
// stable order provides the value.
func ruleAnswerSet(def *TestDefinition, responses []EvaluatorResponse) AnswerSet {
	answers := make(AnswerSet, len(def.Questions))
	for _, q := range def.Questions {
		for _, r := range responses {
			if r.EvaluatorType != EvaluatorSelf {
				continue
			}
			if v := r.AnswerFor(q.ID); !v.IsAbsent() {
				answers[q.ID] = v
				break
			}
		}
		if _, ok := answers[q.ID]; ok {
			continue
		}
		for _, r := range responses {
			if v := r.AnswerFor(q.ID); !v.IsAbsent() {
				answers[q.ID] = v
				break
			}
		}
	}
	return answers
}

// consensusAnswerSet reduces all responses to one logical answer per
// question for the category rollup: the mean raw numeric value when numeric
// answers exist, otherwise the first present answer in stable order.
// Reflection is affine, so averaging raw values before the subdimension
// aggregator normalizes them is equivalent to normalizing first.
func consensusAnswerSet(def *TestDefinition, responses []EvaluatorResponse) AnswerSet {
	answers := make(AnswerSet, len(def.Questions))
	for _, q := range def.Questions {
		var sum float64
		var n int
		var first AnswerValue

		for _, r := range responses {
			v := r.AnswerFor(q.ID)
			if v.IsAbsent() {
				continue
			}
			if first.IsAbsent() {
				first = v
			}
			if raw, ok := v.Number(); ok {
				sum += raw
				n++
			}
		}

		switch {
		case n > 0:
			answers[q.ID] = NumberValue(sum / float64(n))
		case !first.IsAbsent():
			answers[q.ID] = first
		}
	}
	return answers
}

// computeMetrics derives the session-level completion and agreement
// figures.
func computeMetrics(def *TestDefinition, responses []EvaluatorResponse, pool []float64) SessionMetrics {
	metrics := SessionMetrics{ConsensusIndex: ConsensusIndex(pool)}
	if len(responses) == 0 {
		return metrics
	}

	answered := 0
	withAnswers := 0
	for _, r := range responses {
		n := r.AnsweredCount()
		answered += n
		if n > 0 {
			withAnswers++
		}
	}

	metrics.CompletionRate = Round2(float64(withAnswers) / float64(len(responses)) * 100)
	if len(def.Questions) > 0 {
		total := len(def.Questions) * len(responses)
		metrics.ResponseRate = Round2(float64(answered) / float64(total) * 100)
	}
	return metrics
}

// validateResult runs the final validation pass. Validation errors block
// IsValid; warnings never do.
func validateResult(result *AggregationResult, def *TestDefinition, responses []EvaluatorResponse, pool []float64, policy ScoringPolicy) {
	result.IsValid = true

	if len(responses) == 0 || len(pool) == 0 {
		result.IsValid = false
		result.ValidationErrors = append(result.ValidationErrors, msgNoResponses)
	}

	if !result.AnonymityStatus.IsValid {
		result.IsValid = false
		for _, t := range EvaluatorTypes {
			check, ok := result.AnonymityStatus.Checks[t]
			if !ok || check.Met {
				continue
			}
			result.ValidationErrors = append(result.ValidationErrors,
				fmt.Sprintf("anonymity threshold not met for %s: %d/%d", t, check.Actual, check.Required))
		}
	}

	if result.OverallScore < 0 || result.OverallScore > def.Scale.Max {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("overall score %.2f outside expected range [0, %g]", result.OverallScore, def.Scale.Max))
	}
	if result.Metrics.CompletionRate < policy.LowCompletionPct {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("completion rate %.2f%% below %.0f%%", result.Metrics.CompletionRate, policy.LowCompletionPct))
	}
}

// indexAggregates keys the per-question rollups by question id.
func indexAggregates(aggregates []QuestionAggregate) map[string]QuestionAggregate {
	indexed := make(map[string]QuestionAggregate, len(aggregates))
	for _, agg := range aggregates {
		indexed[agg.QuestionID] = agg
	}
	return indexed
}
