package domain

import (
	"math"
	"sort"
)

// Statistics summarizes a set of numeric values at any rollup level.
// All fields are rounded to two decimal places.
type Statistics struct {
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	Mode              float64 `json:"mode"`
	StandardDeviation float64 `json:"standard_deviation"`
	Range             float64 `json:"range"`
	Count             int     `json:"count"`
}

// consensusMaxStdDev is the standard deviation treated as total disagreement
// on a five-point scale when deriving the consensus index.
const consensusMaxStdDev = 2.0

// Round2 rounds to two decimal places, the precision every reported score
// carries.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// ComputeStatistics computes mean, median, mode, population standard
// deviation, range, and count over the value set. Empty input returns the
// all-zero summary rather than an error: a question nobody answered is an
// expected state, not a failure.
//
// Mode tie-break is deterministic: the first maximum encountered scanning
// candidate values in ascending numeric order wins.
func ComputeStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	// Scanning the sorted slice makes the first-maximum tie-break
	// independent of input order.
	mode := sorted[0]
	bestFreq := 0
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestFreq {
			bestFreq = j - i
			mode = sorted[i]
		}
		i = j
	}

	var sqSum float64
	for _, v := range sorted {
		d := v - mean
		sqSum += d * d
	}
	stdDev := math.Sqrt(sqSum / float64(len(sorted)))

	return Statistics{
		Mean:              Round2(mean),
		Median:            Round2(median),
		Mode:              Round2(mode),
		StandardDeviation: Round2(stdDev),
		Range:             Round2(sorted[len(sorted)-1] - sorted[0]),
		Count:             len(sorted),
	}
}

// ConsensusIndex derives a rater-agreement metric from the value set:
// 1 - min(1, stddev/2), clamped to >= 0 and rounded to two decimals.
// The divisor treats a standard deviation of 2 as the practical maximum
// disagreement on a 1-5 scale. Fewer than two values means trivially
// perfect consensus.
func ConsensusIndex(values []float64) float64 {
	if len(values) < 2 {
		return 1
	}

	sd := ComputeStatistics(values).StandardDeviation
	idx := 1 - math.Min(1, sd/consensusMaxStdDev)
	if idx < 0 {
		idx = 0
	}
	return Round2(idx)
}
