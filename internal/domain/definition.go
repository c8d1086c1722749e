// Package domain provides core types and pure scoring logic for 360-degree
// evaluation campaigns. It defines questionnaire definitions, evaluator
// responses, scoring policies, and the deterministic aggregation pipeline
// that turns raw per-question answers into an auditable score tree.
//
// Scoring Architecture:
//   - Scale normalization with negative-question reflection.
//   - Conditional rules that exclude whole categories from scoring.
//   - Weighted subdimension/category rollups with answered/total tracking.
//   - Anonymity-gated evaluator-type breakdowns.
//   - Pure functions for deterministic, idempotent recomputation.
//
// Everything in this package is a referentially transparent computation over
// in-memory data. Persistence, triggers, and delivery are collaborators that
// live outside the domain boundary.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Definition-specific errors returned by structural validation.
var (
	// ErrInvalidDefinition indicates the test definition fails contract validation.
	ErrInvalidDefinition = errors.New("invalid test definition")

	// ErrUnknownQuestionRef indicates a conditional rule references a question
	// id that does not exist in the definition.
	ErrUnknownQuestionRef = errors.New("conditional rule references unknown question")

	// ErrUnknownCategoryRef indicates a question references a category id that
	// does not exist in the definition.
	ErrUnknownCategoryRef = errors.New("question references unknown category")

	// ErrMissingConditionalRule indicates a category is flagged conditional but
	// carries no rule.
	ErrMissingConditionalRule = errors.New("conditional category has no rule")
)

// Scale describes the numeric range answers are expressed on.
// A standard five-point Likert questionnaire uses {Min: 1, Max: 5}.
type Scale struct {
	// Min is the lowest selectable value on the scale.
	Min float64 `json:"min"`

	// Max is the highest selectable value on the scale.
	// Must be strictly greater than Min.
	Max float64 `json:"max" validate:"gtfield=Min"`

	// Labels optionally maps scale points to display text.
	// Presentation only; never consulted by scoring.
	Labels map[string]string `json:"labels,omitempty"`
}

// QuestionType discriminates how a question's answers participate in scoring.
// Using typed constants instead of raw strings provides compile-time safety
// and lets aggregation dispatch on the tag rather than on field presence.
type QuestionType string

const (
	// QuestionLikert is a numeric scale question. Its answers carry the
	// numeric score that feeds every rollup level.
	QuestionLikert QuestionType = "likert"

	// QuestionMultipleChoice is a categorical question. Its answers count
	// toward completion metrics but never toward numeric scores.
	QuestionMultipleChoice QuestionType = "multiple-choice"

	// QuestionOpenText is a free-form question. Like multiple choice, it is
	// completion-only.
	QuestionOpenText QuestionType = "open-text"
)

// Numeric reports whether answers of this question type contribute to
// weighted score accumulation.
func (t QuestionType) Numeric() bool { return t == QuestionLikert }

// Question is a single item of the questionnaire.
type Question struct {
	// ID uniquely identifies the question within the definition.
	ID string `json:"id" validate:"required"`

	// Text is the prompt shown to evaluators.
	Text string `json:"text" validate:"required"`

	// CategoryID links the question to its category.
	CategoryID string `json:"category_id" validate:"required"`

	// SubdimensionID optionally links the question to a subdimension within
	// its category. Empty is legal: such questions roll up through an
	// implicit unit-weight subdimension.
	SubdimensionID string `json:"subdimension_id,omitempty"`

	// Weight is the question's contribution factor within its subdimension.
	// The product ships with three integral levels only; ValidateStructure
	// rejects fractional values the range tags cannot.
	Weight float64 `json:"weight" validate:"min=1,max=3"`

	// IsNegative marks reverse-keyed questions. Their answers are reflected
	// around the scale midpoint before any aggregation.
	IsNegative bool `json:"is_negative"`

	// Type tags how answers to this question are interpreted.
	Type QuestionType `json:"type" validate:"required,oneof=likert multiple-choice open-text"`
}

// Subdimension groups questions within a category.
type Subdimension struct {
	// ID uniquely identifies the subdimension within its category.
	ID string `json:"id" validate:"required"`

	// Name is the display name.
	Name string `json:"name" validate:"required"`

	// Weight is the subdimension's contribution factor within its category.
	// Snapshots that omit it get weight 1; an explicit zero removes the
	// subdimension from the rollup.
	Weight float64 `json:"weight" validate:"min=0"`
}

// UnmarshalJSON decodes a subdimension, defaulting an absent weight to 1.
// Questionnaire snapshots predating configurable weights carry no weight
// field; decoding that as 0 would silently drop the subdimension from its
// category average.
func (s *Subdimension) UnmarshalJSON(data []byte) error {
	type alias Subdimension
	aux := alias{Weight: 1}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Subdimension(aux)
	return nil
}

// RuleOperator is the comparison applied by a conditional rule.
type RuleOperator string

const (
	// OpEquals compares after string coercion, so 5 and "5" match.
	OpEquals RuleOperator = "equals"

	// OpNotEquals is the negation of OpEquals.
	OpNotEquals RuleOperator = "not_equals"

	// OpGreaterThan compares both sides as numbers.
	OpGreaterThan RuleOperator = "greater_than"

	// OpLessThan compares both sides as numbers.
	OpLessThan RuleOperator = "less_than"
)

// RuleAction is what a fired rule does to its target category.
type RuleAction string

const (
	// ActionExcludeFromScoring removes the category from every numeric rollup.
	ActionExcludeFromScoring RuleAction = "exclude_from_scoring"

	// ActionMarkNotApplicable flags the category for downstream reporting
	// without affecting numeric exclusion.
	ActionMarkNotApplicable RuleAction = "mark_as_not_applicable"
)

// RuleCondition is the predicate half of a conditional rule.
type RuleCondition struct {
	// QuestionID names the answer the predicate inspects.
	QuestionID string `json:"question_id" validate:"required"`

	// Operator selects the comparison semantics.
	Operator RuleOperator `json:"operator" validate:"required,oneof=equals not_equals greater_than less_than"`

	// Value is the right-hand side of the comparison. Survey answers arrive
	// as mixed types from different widgets, so the comparison coerces
	// rather than type-checks.
	Value string `json:"value" validate:"required"`
}

// ConditionalRule excludes a category from scoring when its condition holds
// over the session's answer set. Rules are pure predicates with no state of
// their own.
type ConditionalRule struct {
	Condition RuleCondition `json:"condition" validate:"required"`

	// Action determines the exclusion semantics when the condition fires.
	Action RuleAction `json:"action" validate:"required,oneof=exclude_from_scoring mark_as_not_applicable"`

	// CategoryID names the category the rule governs. Only used for rules in
	// the definition-level rule list; rules embedded in a category implicitly
	// govern that category.
	CategoryID string `json:"category_id,omitempty"`
}

// Describe renders the rule as a human-readable exclusion reason for
// report output.
func (r ConditionalRule) Describe() string {
	return fmt.Sprintf("answer to %s %s %s", r.Condition.QuestionID, r.Condition.Operator, r.Condition.Value)
}

// Category is a weighted group of subdimensions and questions.
type Category struct {
	// ID uniquely identifies the category within the definition.
	ID string `json:"id" validate:"required"`

	// Name is the display name.
	Name string `json:"name" validate:"required"`

	// Weight is the category's contribution factor in the overall rollup.
	Weight float64 `json:"weight" validate:"min=0"`

	// Color is carried for report rendering.
	Color string `json:"color,omitempty"`

	// IsConditional marks the category as governed by ConditionalRule.
	IsConditional bool `json:"is_conditional"`

	// ConditionalRule must be present when IsConditional is true.
	ConditionalRule *ConditionalRule `json:"conditional_rule,omitempty"`

	// Subdimensions are the category's ordered subdimensions.
	Subdimensions []Subdimension `json:"subdimensions" validate:"dive"`
}

// TestDefinition is an immutable snapshot of one questionnaire version.
// It is frozen onto each evaluation session when a campaign is configured,
// so later edits to the live questionnaire never retroactively change
// in-flight scoring.
type TestDefinition struct {
	// ID identifies the questionnaire.
	ID string `json:"id" validate:"required"`

	// Version identifies the snapshot of the questionnaire.
	Version int `json:"version" validate:"min=1"`

	// Scale is the answer scale shared by all likert questions.
	Scale Scale `json:"scale" validate:"required"`

	// Categories are the ordered scoring categories.
	Categories []Category `json:"categories" validate:"required,min=1,dive"`

	// Questions are all questionnaire items across categories.
	Questions []Question `json:"questions" validate:"required,min=1,dive"`

	// ConditionalRules is the legacy definition-level rule list. Only
	// exclude_from_scoring entries affect numeric rollups.
	ConditionalRules []ConditionalRule `json:"conditional_rules,omitempty" validate:"dive"`
}

// Validate checks the definition against its contract tags.
// Returns nil if valid, or a validation error describing the first violation.
func (d *TestDefinition) Validate() error { return validate.Struct(d) }

// ValidateStructure checks referential integrity beyond what struct tags can
// express: every conditional rule must target an existing question, every
// question must belong to an existing category, and conditional categories
// must carry a rule. A definition that fails here is malformed input and the
// whole aggregation fails, never a silently wrong score.
func (d *TestDefinition) ValidateStructure() error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	questionIDs := make(map[string]struct{}, len(d.Questions))
	for _, q := range d.Questions {
		questionIDs[q.ID] = struct{}{}
	}
	categoryIDs := make(map[string]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		categoryIDs[c.ID] = struct{}{}
	}

	for _, q := range d.Questions {
		if _, ok := categoryIDs[q.CategoryID]; !ok {
			return fmt.Errorf("%w: question %s -> category %s", ErrUnknownCategoryRef, q.ID, q.CategoryID)
		}
		if q.Weight != math.Trunc(q.Weight) {
			return fmt.Errorf("%w: question %s weight %g is not a whole level", ErrInvalidDefinition, q.ID, q.Weight)
		}
	}

	for _, c := range d.Categories {
		if c.IsConditional && c.ConditionalRule == nil {
			return fmt.Errorf("%w: category %s", ErrMissingConditionalRule, c.ID)
		}
		if c.ConditionalRule != nil {
			if _, ok := questionIDs[c.ConditionalRule.Condition.QuestionID]; !ok {
				return fmt.Errorf("%w: category %s -> question %s",
					ErrUnknownQuestionRef, c.ID, c.ConditionalRule.Condition.QuestionID)
			}
		}
	}

	for _, r := range d.ConditionalRules {
		if _, ok := questionIDs[r.Condition.QuestionID]; !ok {
			return fmt.Errorf("%w: rule -> question %s", ErrUnknownQuestionRef, r.Condition.QuestionID)
		}
	}

	return nil
}

// QuestionsForCategory returns the definition's questions belonging to the
// given category, preserving questionnaire order.
func (d *TestDefinition) QuestionsForCategory(categoryID string) []Question {
	var out []Question
	for _, q := range d.Questions {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	return out
}

// QuestionByID returns the question with the given id and whether it exists.
func (d *TestDefinition) QuestionByID(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
