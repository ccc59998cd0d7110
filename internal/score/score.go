// Package score reduces a risk list to a single amendment-risk score.
package score

import "github.com/brianndofor/trialrev/internal/risk"

const (
	Max = 100
	Min = 0
)

// Deduction is the penalty for one risk of the given severity. Severities
// other than Low, Medium and High cost nothing.
func Deduction(s risk.Severity) int {
	switch s {
	case risk.Low:
		return 5
	case risk.Medium:
		return 15
	case risk.High:
		return 30
	default:
		return 0
	}
}

// Compute starts at 100, subtracts each risk's deduction and clamps at 0.
// The result does not depend on the order of risks.
func Compute(risks []risk.Item) int {
	total := Max
	for _, r := range risks {
		total -= Deduction(r.Severity)
	}
	if total < Min {
		return Min
	}
	return total
}

const (
	BandLow      = "low"
	BandModerate = "moderate"
	BandHigh     = "high"
)

// Band buckets a score for display: 80 and above is low amendment risk,
// 50 and above moderate, anything lower high.
func Band(score int) string {
	switch {
	case score >= 80:
		return BandLow
	case score >= 50:
		return BandModerate
	default:
		return BandHigh
	}
}
