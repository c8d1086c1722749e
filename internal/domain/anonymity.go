package domain

import "math"

// AnonymityCheck is the disclosure verdict for one evaluator type.
type AnonymityCheck struct {
	// Required is the configured minimum respondent count.
	Required int `json:"required"`

	// Actual is the submitted respondent count.
	Actual int `json:"actual"`

	// Met reports whether Actual reached Required.
	Met bool `json:"met"`

	// Percentage is round(actual/required*100); above 100 when the
	// threshold is exceeded.
	Percentage int `json:"percentage"`
}

// AnonymityStatus is the gate's verdict across all configured evaluator
// types. The gate only reports status; whether per-type breakdowns are
// actually withheld is enforced by the report layer.
type AnonymityStatus struct {
	// Checks holds the per-type verdicts, one entry per configured type.
	Checks map[EvaluatorType]AnonymityCheck `json:"checks"`

	// IsValid is true only when every configured type meets its threshold.
	// A single short-handed evaluator type invalidates the whole
	// aggregation's anonymity status.
	IsValid bool `json:"is_valid"`

	// TotalEvaluators counts all responses regardless of type.
	TotalEvaluators int `json:"total_evaluators"`
}

// ValidateAnonymity counts responses per evaluator type against the
// policy's thresholds. Types the policy does not threshold are never gated
// and do not appear in Checks.
func ValidateAnonymity(responses []EvaluatorResponse, thresholds map[EvaluatorType]int) AnonymityStatus {
	counts := make(map[EvaluatorType]int)
	for _, r := range responses {
		counts[r.EvaluatorType]++
	}

	status := AnonymityStatus{
		Checks:          make(map[EvaluatorType]AnonymityCheck, len(thresholds)),
		IsValid:         true,
		TotalEvaluators: len(responses),
	}

	for _, t := range EvaluatorTypes {
		required, ok := thresholds[t]
		if !ok || required <= 0 {
			continue
		}
		actual := counts[t]
		check := AnonymityCheck{
			Required:   required,
			Actual:     actual,
			Met:        actual >= required,
			Percentage: int(math.Round(float64(actual) / float64(required) * 100)),
		}
		status.Checks[t] = check
		if !check.Met {
			status.IsValid = false
		}
	}

	return status
}
