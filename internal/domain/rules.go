package domain

// EvaluateRule reports whether the rule's condition holds over the answer
// set. A rule never fires on missing data: an absent answer evaluates to
// false, so a category is never excluded because nobody reached the
// triggering question yet.
//
// Comparison semantics replicate how mixed-type survey answers behave in
// practice: equals/not_equals compare after string coercion (5 matches "5"),
// greater_than/less_than compare numerically and evaluate false whenever
// either side has no numeric interpretation.
func EvaluateRule(rule ConditionalRule, answers AnswerSet) bool {
	value, ok := answers[rule.Condition.QuestionID]
	if !ok || value.IsAbsent() {
		return false
	}

	switch rule.Condition.Operator {
	case OpEquals:
		return value.Text() == rule.Condition.Value
	case OpNotEquals:
		return value.Text() != rule.Condition.Value
	case OpGreaterThan:
		lhs, lok := value.Number()
		rhs, rok := TextValue(rule.Condition.Value).Number()
		return lok && rok && lhs > rhs
	case OpLessThan:
		lhs, lok := value.Number()
		rhs, rok := TextValue(rule.Condition.Value).Number()
		return lok && rok && lhs < rhs
	default:
		return false
	}
}

// ExcludedCategories returns the category ids excluded from scoring for the
// given answer set: the union of conditional categories whose embedded rule
// fires and definition-level rules with the exclude_from_scoring action.
// Definition-level mark_as_not_applicable rules affect downstream reporting
// only and never cause numeric exclusion.
func ExcludedCategories(def *TestDefinition, answers AnswerSet) map[string]string {
	excluded := make(map[string]string)

	for _, cat := range def.Categories {
		if !cat.IsConditional || cat.ConditionalRule == nil {
			continue
		}
		if EvaluateRule(*cat.ConditionalRule, answers) {
			excluded[cat.ID] = cat.ConditionalRule.Describe()
		}
	}

	for _, rule := range def.ConditionalRules {
		if rule.Action != ActionExcludeFromScoring || rule.CategoryID == "" {
			continue
		}
		if EvaluateRule(rule, answers) {
			if _, seen := excluded[rule.CategoryID]; !seen {
				excluded[rule.CategoryID] = rule.Describe()
			}
		}
	}

	return excluded
}
