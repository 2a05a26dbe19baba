package analysis

import "math"

const (
	criticalPenalty = 25
	highPenalty     = 15
	mediumPenalty   = 5
)

// Score compliance score in [0,100] for a single result
func Score(r *Result) int {
	if r == nil {
		return 100
	}
	s := 100 -
		criticalPenalty*len(r.CriticalRisks) -
		highPenalty*len(r.HighRisks) -
		mediumPenalty*len(r.MediumRisks)
	if s < 0 {
		return 0
	}
	return s
}

// AggregateScore averages per-result scores and rounds once.
// An empty input scores 0.
func AggregateScore(results []*Result) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += Score(r)
	}
	return int(math.Floor(float64(sum)/float64(len(results)) + 0.5))
}
