package domain

// Default evaluator-type weights for the overall composition.
// These sum to 1.0 only when all five types are present; the composition
// formula renormalizes implicitly by dividing by the sum of present weights.
const (
	selfWeight        = 0.1
	managerWeight     = 0.3
	peerWeight        = 0.25
	subordinateWeight = 0.25
	externalWeight    = 0.1
)

// Default anonymity thresholds. Types absent from a policy's threshold map
// are never gated.
const (
	defaultPeerThreshold        = 3
	defaultSubordinateThreshold = 3
	defaultManagerThreshold     = 1
	defaultExternalThreshold    = 1
)

// Warning bounds for final validation. Breaches are advisory only.
const (
	defaultLowCompletionPct = 50.0
)

// ScoringPolicy carries every tunable the engine consults: evaluator-type
// weights, anonymity thresholds, and warning bounds. Organizations and plans
// supply their own policy; the engine ships these defaults. The policy is
// passed explicitly into Compute so tests can inject deterministic values
// and so no scoring constant hides in module state.
type ScoringPolicy struct {
	// EvaluatorWeights weight each evaluator type in the overall composition.
	EvaluatorWeights map[EvaluatorType]float64 `json:"evaluator_weights" validate:"required,min=1"`

	// AnonymityThresholds set the minimum respondent count per evaluator type
	// before that type's breakdown may be disclosed.
	AnonymityThresholds map[EvaluatorType]int `json:"anonymity_thresholds" validate:"required,min=1"`

	// LowCompletionPct is the completion-rate floor below which a warning is
	// attached to the aggregation.
	LowCompletionPct float64 `json:"low_completion_pct" validate:"min=0,max=100"`
}

// Validate checks the policy against its contract tags.
func (p *ScoringPolicy) Validate() error { return validate.Struct(p) }

// WeightFor returns the composition weight for an evaluator type, or 0 when
// the policy does not weight that type.
func (p *ScoringPolicy) WeightFor(t EvaluatorType) float64 { return p.EvaluatorWeights[t] }

// DefaultScoringPolicy returns the policy the engine ships with:
//   - weights self 0.1, manager 0.3, peer 0.25, subordinate 0.25, external 0.1
//   - thresholds peer>=3, subordinate>=3, manager>=1, external>=1
//   - low-completion warning below 50%
//
// A fresh value is returned on every call so callers can mutate their copy.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		EvaluatorWeights: map[EvaluatorType]float64{
			EvaluatorSelf:        selfWeight,
			EvaluatorManager:     managerWeight,
			EvaluatorPeer:        peerWeight,
			EvaluatorSubordinate: subordinateWeight,
			EvaluatorExternal:    externalWeight,
		},
		AnonymityThresholds: map[EvaluatorType]int{
			EvaluatorPeer:        defaultPeerThreshold,
			EvaluatorSubordinate: defaultSubordinateThreshold,
			EvaluatorManager:     defaultManagerThreshold,
			EvaluatorExternal:    defaultExternalThreshold,
		},
		LowCompletionPct: defaultLowCompletionPct,
	}
}
