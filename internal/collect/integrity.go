package collect

import (
	"context"
	"fmt"

	"github.com/stridelabs/sleuth/internal/issue"
)

// IntegrityCollector cross-checks per-source daily step totals. A relative
// spread above the tolerance means at least one source disagrees about what
// today looked like.
type IntegrityCollector struct{}

func (c *IntegrityCollector) Name() string { return "integrity" }

func (c *IntegrityCollector) Checks() []string {
	return []string{"per-source count agreement"}
}

func (c *IntegrityCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	if len(snap.DailyStepsBySource) < 2 {
		return nil, nil
	}

	tolerance := params.CountTolerance
	if tolerance <= 0 {
		tolerance = DefaultParams().CountTolerance
	}

	min, max := countBounds(snap.DailyStepsBySource)
	if max == 0 {
		// All sources agree there was nothing today.
		return nil, nil
	}

	spread := float64(max-min) / float64(max)
	if spread <= tolerance {
		return nil, nil
	}

	is := issue.New(issue.KindCountDiscrepancy, ConfidenceCountMismatch)
	is.Detail = fmt.Sprintf("Daily step totals disagree across sources (min %d, max %d, spread %.0f%%).",
		min, max, spread*100)
	return []issue.Issue{is}, nil
}

func countBounds(counts map[string]int) (min, max int) {
	first := true
	for _, v := range counts {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
