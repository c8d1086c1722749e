package domain

// Normalize maps a raw answer value onto the question's numeric scale,
// reflecting reverse-keyed questions around the scale midpoint:
//
//	normalized = (max + min) - raw    when isNegative
//
// Absent and non-numeric values return nil, never zero — "unanswered" must
// stay distinguishable from "answered with the worst score" so it can be
// excluded from denominators. Values outside [min, max] pass through
// unclamped: the engine trusts validated input from the capture layer and
// stays a pure computation.
func Normalize(value AnswerValue, isNegative bool, scale Scale) *float64 {
	raw, ok := value.Number()
	if !ok {
		return nil
	}

	if isNegative {
		raw = scale.Max + scale.Min - raw
	}
	return &raw
}

// NormalizeForQuestion dispatches normalization on the question's type tag.
// Only likert answers produce a numeric score; multiple-choice and open-text
// answers are completion-only and normalize to nil regardless of content.
func NormalizeForQuestion(value AnswerValue, q Question, scale Scale) *float64 {
	if !q.Type.Numeric() {
		return nil
	}
	return Normalize(value, q.IsNegative, scale)
}
