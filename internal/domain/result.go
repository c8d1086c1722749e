package domain

// AggregationStatus is the lifecycle state of an aggregation record.
// There are no intermediate states: a computation either completes as a
// whole or fails as a whole, and a failed run never persists partial scores
// as completed.
type AggregationStatus string

const (
	// AggregationPending is the initial state before any computation ran.
	AggregationPending AggregationStatus = "pending"

	// AggregationCompleted marks a fully computed, validated aggregation.
	AggregationCompleted AggregationStatus = "completed"

	// AggregationFailed marks an aggregation aborted by malformed input.
	AggregationFailed AggregationStatus = "failed"
)

// QuestionAggregate is the cross-evaluator rollup for one question.
// Values are normalized: reverse-keyed questions are already reflected.
type QuestionAggregate struct {
	// QuestionID identifies the question.
	QuestionID string `json:"question_id"`

	// Statistics summarizes all normalized numeric answers to the question.
	Statistics Statistics `json:"statistics"`

	// AggregatedScore is the mean normalized answer.
	AggregatedScore float64 `json:"aggregated_score"`

	// ResponsesByType buckets normalized numeric answers by evaluator type.
	ResponsesByType map[EvaluatorType][]float64 `json:"responses_by_type,omitempty"`

	// IsValid reports whether at least one numeric answer exists.
	IsValid bool `json:"is_valid"`
}

// SessionMetrics carries the completion and agreement metrics of one
// aggregation.
type SessionMetrics struct {
	// CompletionRate is the percentage of responses with at least one
	// present answer.
	CompletionRate float64 `json:"completion_rate"`

	// ResponseRate is the percentage of question/evaluator pairs actually
	// answered.
	ResponseRate float64 `json:"response_rate"`

	// ConsensusIndex expresses rater agreement over the flattened value
	// pool, 1 being perfect consensus.
	ConsensusIndex float64 `json:"consensus_index"`
}

// AggregationResult is the finalized, derived score record for one
// evaluation session. It is fully reproducible from the definition snapshot
// and the submitted responses — recomputing with the same inputs yields a
// deep-equal result, which is what makes duplicate triggers safe.
type AggregationResult struct {
	// Status is completed for every result produced by Compute; failed
	// records are written by the caller when Compute returns an error.
	Status AggregationStatus `json:"status"`

	// AggregatedResponses holds the per-question rollups keyed by question id.
	AggregatedResponses map[string]QuestionAggregate `json:"aggregated_responses"`

	// ScoresByType holds the per-evaluator-type scores.
	ScoresByType map[EvaluatorType]TypeScore `json:"scores_by_type"`

	// CategoryScores holds the category/subdimension rollup in definition
	// order, consumed by narrative reports.
	CategoryScores []CategoryScore `json:"category_scores"`

	// OverallScore is the weighted evaluator-type composition on the answer
	// scale, rounded to two decimals.
	OverallScore float64 `json:"overall_score"`

	// Metrics carries completion and consensus figures.
	Metrics SessionMetrics `json:"metrics"`

	// AnonymityStatus is the disclosure gate verdict.
	AnonymityStatus AnonymityStatus `json:"anonymity_status"`

	// IsValid is true when the session has responses and every anonymity
	// threshold is met. Invalid aggregations are still produced and stored
	// so operators can see why a session is held back.
	IsValid bool `json:"is_valid"`

	// ValidationErrors lists the business-rule failures blocking validity.
	ValidationErrors []string `json:"validation_errors,omitempty"`

	// Warnings lists advisory findings that never block validity.
	Warnings []string `json:"warnings,omitempty"`
}
