package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/stridelabs/sleuth/internal/issue"
)

// timeRounding keeps age strings in detail text readable.
const timeRounding = time.Minute

// StalenessCollector checks the age of the newest recorded activity sample
// against the staleness threshold. Stale data is a symptom with many
// possible causes, so its initial confidence is the lowest of the set; the
// diagnosis engine revises it with corroborating signals.
type StalenessCollector struct{}

func (c *StalenessCollector) Name() string { return "staleness" }

func (c *StalenessCollector) Checks() []string {
	return []string{"recent sample staleness"}
}

func (c *StalenessCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	threshold := params.StalenessThreshold
	if threshold <= 0 {
		threshold = DefaultParams().StalenessThreshold
	}

	if snap.LastSampleAt == nil {
		is := issue.New(issue.KindNoRecentActivityData, ConfidenceStaleness)
		is.Detail = "No activity sample has ever been recorded."
		return []issue.Issue{is}, nil
	}

	age := params.Reference().Sub(*snap.LastSampleAt)
	if age <= threshold {
		return nil, nil
	}

	is := issue.New(issue.KindNoRecentActivityData, ConfidenceStaleness)
	is.Detail = fmt.Sprintf("Newest sample is %s old (threshold %s).",
		age.Round(timeRounding), threshold)
	return []issue.Issue{is}, nil
}
