package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// EvaluatorType is the relationship of a rater to the evaluatee.
type EvaluatorType string

const (
	// EvaluatorSelf is the evaluatee rating themselves.
	EvaluatorSelf EvaluatorType = "self"

	// EvaluatorManager is a direct manager of the evaluatee.
	EvaluatorManager EvaluatorType = "manager"

	// EvaluatorPeer is a colleague at the same level.
	EvaluatorPeer EvaluatorType = "peer"

	// EvaluatorSubordinate is a direct report of the evaluatee.
	EvaluatorSubordinate EvaluatorType = "subordinate"

	// EvaluatorExternal is a rater outside the organization.
	EvaluatorExternal EvaluatorType = "external"
)

// EvaluatorTypes lists all evaluator types in stable report order.
// Iteration over this slice keeps every derived map walk deterministic.
var EvaluatorTypes = []EvaluatorType{
	EvaluatorSelf,
	EvaluatorManager,
	EvaluatorPeer,
	EvaluatorSubordinate,
	EvaluatorExternal,
}

// ValueKind tags the variant held by an AnswerValue.
type ValueKind uint8

const (
	// ValueNone is the absent answer. It is distinct from zero: an absent
	// answer is excluded from every denominator, a zero answer is not.
	ValueNone ValueKind = iota

	// ValueNumber is a numeric answer (likert selection).
	ValueNumber

	// ValueText is a free-text or multiple-choice answer.
	ValueText

	// ValueBool is a yes/no answer.
	ValueBool
)

// AnswerValue is the tagged value of one answer. Survey answers arrive as
// mixed types from different UI widgets; the tag makes "unanswered" an
// explicit state instead of an implicit nil scattered through the pipeline.
type AnswerValue struct {
	kind ValueKind
	num  float64
	text string
	b    bool
}

// NoValue returns the absent answer value.
func NoValue() AnswerValue { return AnswerValue{} }

// NumberValue wraps a numeric answer.
func NumberValue(v float64) AnswerValue { return AnswerValue{kind: ValueNumber, num: v} }

// TextValue wraps a textual answer.
func TextValue(s string) AnswerValue { return AnswerValue{kind: ValueText, text: s} }

// BoolValue wraps a boolean answer.
func BoolValue(b bool) AnswerValue { return AnswerValue{kind: ValueBool, b: b} }

// Kind returns the variant tag.
func (v AnswerValue) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the value represents "no answer".
func (v AnswerValue) IsAbsent() bool { return v.kind == ValueNone }

// Number returns the numeric interpretation of the value and whether one
// exists. Booleans coerce to 0/100, text coerces through strconv when it
// parses as a number; anything else has no numeric interpretation.
func (v AnswerValue) Number() (float64, bool) {
	switch v.kind {
	case ValueNumber:
		return v.num, true
	case ValueBool:
		if v.b {
			return 100, true
		}
		return 0, true
	case ValueText:
		f, err := strconv.ParseFloat(v.text, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text returns the string coercion of the value. Numbers format with the
// shortest representation so 5 and "5" compare equal under rule evaluation.
func (v AnswerValue) Text() string {
	switch v.kind {
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueText:
		return v.text
	case ValueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as the JSON literal it wraps: a number, a
// string, a boolean, or null for the absent answer. This matches the wire
// shape responses arrive in from the capture layer and keeps fingerprints
// of identical inputs identical.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueText:
		return json.Marshal(v.text)
	case ValueBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON literal into the matching variant. Null and
// undefined both decode to the absent answer.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NoValue()
	case float64:
		*v = NumberValue(t)
	case string:
		*v = TextValue(t)
	case bool:
		*v = BoolValue(t)
	default:
		// Arrays and objects are not valid answers; treat as absent so one
		// malformed widget payload cannot fail a whole aggregation.
		*v = NoValue()
	}
	return nil
}

// Answer is one evaluator's value for one question. Answers are immutable
// once submitted; a resubmission creates a new logical response.
type Answer struct {
	// QuestionID names the question answered.
	QuestionID string `json:"question_id" validate:"required"`

	// EvaluatorID identifies the rater.
	EvaluatorID string `json:"evaluator_id" validate:"required"`

	// EvaluatorType is the rater's relationship to the evaluatee.
	EvaluatorType EvaluatorType `json:"evaluator_type" validate:"required,oneof=self manager peer subordinate external"`

	// Value is the tagged answer value.
	Value AnswerValue `json:"value"`

	// AnsweredAt records when the answer was captured.
	AnsweredAt time.Time `json:"answered_at"`
}

// ResponseStatus is the lifecycle state of an evaluator's submission.
type ResponseStatus string

const (
	// ResponseDraft is a submission still being auto-saved.
	ResponseDraft ResponseStatus = "draft"

	// ResponseSubmitted is a frozen, complete submission.
	ResponseSubmitted ResponseStatus = "submitted"
)

// EvaluatorResponse is one evaluator's full submission for one session.
// The aggregation contract expects callers to pass only submitted responses;
// the engine does not re-filter by status.
type EvaluatorResponse struct {
	// EvaluatorID identifies the rater.
	EvaluatorID string `json:"evaluator_id" validate:"required"`

	// EvaluatorType is the rater's relationship to the evaluatee.
	EvaluatorType EvaluatorType `json:"evaluator_type" validate:"required,oneof=self manager peer subordinate external"`

	// Status is the submission lifecycle state.
	Status ResponseStatus `json:"status" validate:"required,oneof=draft submitted"`

	// Answers maps question id to the evaluator's answer.
	Answers map[string]Answer `json:"answers"`
}

// Validate checks the response against its contract tags.
func (r *EvaluatorResponse) Validate() error { return validate.Struct(r) }

// AnswerFor returns the response's value for a question. Absent questions
// yield NoValue, never a zero score.
func (r *EvaluatorResponse) AnswerFor(questionID string) AnswerValue {
	a, ok := r.Answers[questionID]
	if !ok {
		return NoValue()
	}
	return a.Value
}

// AnsweredCount returns how many questions carry a present value.
// Open-text and multiple-choice answers count; absent values do not.
func (r *EvaluatorResponse) AnsweredCount() int {
	n := 0
	for _, a := range r.Answers {
		if !a.Value.IsAbsent() {
			n++
		}
	}
	return n
}

// AnswerSet is one logical answer per question, the input shape consumed by
// rule evaluation and subdimension scoring.
type AnswerSet map[string]AnswerValue
