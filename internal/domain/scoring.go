package domain

// SubdimensionScore is the outcome of rolling one subdimension's questions
// into a single score.
type SubdimensionScore struct {
	// SubdimensionID identifies the subdimension scored. Empty for the
	// implicit subdimension that carries a category's direct questions.
	SubdimensionID string `json:"subdimension_id,omitempty"`

	// Score is the weighted mean of normalized numeric answers, 0 when no
	// numeric question was answered. Zero keeps an empty subdimension
	// visible in parent averages instead of silently disappearing.
	Score float64 `json:"score"`

	// WeightedScore is Score multiplied by the subdimension weight — the
	// contribution made to the parent category.
	WeightedScore float64 `json:"weighted_score"`

	// TotalWeight is the subdimension weight, the denominator share
	// contributed to the category. It stays present even when nothing was
	// answered: an empty subdimension scores 0 and weighs on the category
	// average instead of silently disappearing from it.
	TotalWeight float64 `json:"total_weight"`

	// AnsweredQuestions counts questions with any present answer, numeric
	// or not. Open-text counts toward completion, not toward the score.
	AnsweredQuestions int `json:"answered_questions"`

	// TotalQuestions counts all questions in the subdimension.
	TotalQuestions int `json:"total_questions"`
}

// CategoryScore is the outcome of rolling one category's subdimensions into
// a single score.
type CategoryScore struct {
	// CategoryID identifies the category scored.
	CategoryID string `json:"category_id"`

	// Score is the weighted mean across subdimensions. Nil marks an
	// excluded category: "not applicable" is a different fact than zero.
	Score *float64 `json:"score"`

	// WeightedScore is Score multiplied by the category weight; 0 for
	// excluded categories so they contribute nothing to the parent rollup.
	WeightedScore float64 `json:"weighted_score"`

	// TotalWeight is the category weight, or 0 when excluded so the parent
	// denominator drops the category entirely rather than penalizing it.
	TotalWeight float64 `json:"total_weight"`

	// IsExcluded reports whether a conditional rule removed the category.
	IsExcluded bool `json:"is_excluded"`

	// ExclusionReason is the human-readable rendering of the firing rule.
	ExclusionReason string `json:"exclusion_reason,omitempty"`

	// Subdimensions carries the per-subdimension breakdown for reports.
	Subdimensions []SubdimensionScore `json:"subdimensions,omitempty"`
}

// ScoreSubdimension rolls all answered questions of one subdimension into a
// single score using per-question weights. Questions answered with
// non-numeric values (open text, multiple choice) increment the answered
// count but never the weighted sum, so completion metrics and numeric
// scores stay decoupled.
func ScoreSubdimension(sub Subdimension, questions []Question, answers AnswerSet, scale Scale) SubdimensionScore {
	result := SubdimensionScore{SubdimensionID: sub.ID}

	var weightedSum, weightTotal float64
	for _, q := range questions {
		if q.SubdimensionID != sub.ID {
			continue
		}
		result.TotalQuestions++

		value, ok := answers[q.ID]
		if !ok || value.IsAbsent() {
			continue
		}
		result.AnsweredQuestions++

		if normalized := NormalizeForQuestion(value, q, scale); normalized != nil {
			weightedSum += *normalized * q.Weight
			weightTotal += q.Weight
		}
	}

	if weightTotal > 0 {
		result.Score = weightedSum / weightTotal
	}
	result.TotalWeight = sub.Weight
	result.WeightedScore = result.Score * sub.Weight

	return result
}

// ScoreCategory rolls a category's subdimensions into a single score.
// Excluded categories return a nil score with zero weight so the overall
// rollup neither counts them nor penalizes them — numerically identical to
// dropping the category from the definition.
//
// Only questions belonging to the category are scored, whatever slice the
// caller passes: subdimension ids are unique within a category, not across
// the definition, so filtering here keeps one category's answers out of
// another's rollup.
//
// Questions with no subdimension are legal; they roll up through an
// implicit unit-weight subdimension so a flat category still scores.
func ScoreCategory(cat Category, questions []Question, answers AnswerSet, scale Scale, isExcluded bool, exclusionReason string) CategoryScore {
	if isExcluded {
		return CategoryScore{
			CategoryID:      cat.ID,
			Score:           nil,
			WeightedScore:   0,
			TotalWeight:     0,
			IsExcluded:      true,
			ExclusionReason: exclusionReason,
		}
	}

	owned := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.CategoryID == cat.ID {
			owned = append(owned, q)
		}
	}
	questions = owned

	result := CategoryScore{CategoryID: cat.ID}

	subs := cat.Subdimensions
	if hasDirectQuestions(cat.ID, questions) {
		subs = append(append([]Subdimension{}, subs...), Subdimension{ID: "", Name: cat.Name, Weight: 1})
	}

	var weightedSum, weightTotal float64
	for _, sub := range subs {
		subScore := ScoreSubdimension(sub, questions, answers, scale)
		result.Subdimensions = append(result.Subdimensions, subScore)
		weightedSum += subScore.WeightedScore
		weightTotal += subScore.TotalWeight
	}

	var score float64
	if weightTotal > 0 {
		score = weightedSum / weightTotal
	}
	result.Score = &score
	result.WeightedScore = score * cat.Weight
	result.TotalWeight = cat.Weight

	return result
}

// hasDirectQuestions reports whether any question of the category lacks a
// subdimension.
func hasDirectQuestions(categoryID string, questions []Question) bool {
	for _, q := range questions {
		if q.CategoryID == categoryID && q.SubdimensionID == "" {
			return true
		}
	}
	return false
}

// ComposeCategories combines category scores into one overall value using
// category weights. Excluded categories carry zero weight and drop out of
// the denominator.
func ComposeCategories(categories []CategoryScore) float64 {
	var weightedSum, weightTotal float64
	for _, c := range categories {
		weightedSum += c.WeightedScore
		weightTotal += c.TotalWeight
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

// TypeScore is the aggregate for one evaluator type across all questions.
type TypeScore struct {
	// Score is the mean of per-question means. Averaging per-question first
	// keeps questions with many respondents from dominating the type score;
	// the divisor is deliberately Questions, not the raw answer count in
	// Count.
	Score float64 `json:"score"`

	// Count is the number of raw numeric answers behind the score.
	Count int `json:"count"`

	// Questions is the number of question buckets averaged.
	Questions int `json:"questions"`

	// IsValid reports whether the type contributed at least one answer.
	IsValid bool `json:"is_valid"`
}

// ScoresByType combines per-question evaluator-type buckets into per-type
// scores. For each question bucket the mean is taken first; the type score
// is the mean of those means. Iteration follows EvaluatorTypes order so the
// output is deterministic.
func ScoresByType(aggregates []QuestionAggregate) map[EvaluatorType]TypeScore {
	sums := make(map[EvaluatorType]float64)
	questionCounts := make(map[EvaluatorType]int)
	valueCounts := make(map[EvaluatorType]int)

	for _, agg := range aggregates {
		for _, t := range EvaluatorTypes {
			values := agg.ResponsesByType[t]
			if len(values) == 0 {
				continue
			}
			sums[t] += ComputeStatistics(values).Mean
			questionCounts[t]++
			valueCounts[t] += len(values)
		}
	}

	scores := make(map[EvaluatorType]TypeScore)
	for _, t := range EvaluatorTypes {
		n := questionCounts[t]
		if n == 0 {
			continue
		}
		scores[t] = TypeScore{
			Score:     Round2(sums[t] / float64(n)),
			Count:     valueCounts[t],
			Questions: n,
			IsValid:   valueCounts[t] > 0,
		}
	}
	return scores
}

// ComposeOverall combines evaluator-type scores into one overall score using
// the policy's type weights. Absent types renormalize implicitly: the
// formula divides by the sum of weights actually present, so a session with
// only managers and peers still lands on the answer scale. No valid type
// yields 0, never NaN.
func ComposeOverall(scores map[EvaluatorType]TypeScore, policy ScoringPolicy) float64 {
	var weightedSum, weightTotal float64
	for _, t := range EvaluatorTypes {
		ts, ok := scores[t]
		if !ok || !ts.IsValid || ts.Count == 0 {
			continue
		}
		w := policy.WeightFor(t)
		weightedSum += ts.Score * w
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}
