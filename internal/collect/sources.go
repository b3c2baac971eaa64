package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/stridelabs/sleuth/internal/issue"
)

// SourcesCollector inspects the connected data source inventory: no sources
// at all, several sources feeding the same data type (double counting risk),
// and manually entered data mixed into the stream.
type SourcesCollector struct{}

func (c *SourcesCollector) Name() string { return "sources" }

func (c *SourcesCollector) Checks() []string {
	return []string{"connected data source inventory"}
}

func (c *SourcesCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	var out []issue.Issue

	if len(snap.Sources) == 0 {
		is := issue.New(issue.KindNoDataSources, ConfidenceNoSources)
		is.Detail = "No data sources are connected; there is nothing to record activity from."
		out = append(out, is)
	}

	if dup := duplicateSourceTypes(snap.Sources); len(dup) > 0 {
		is := issue.New(issue.KindMultipleSourceConflict, ConfidenceSourceConflict)
		is.Detail = fmt.Sprintf("Multiple sources feed the same data type (%s); totals may double count or disagree.",
			strings.Join(dup, ", "))
		out = append(out, is)
	}

	min := params.ManualEntryMin
	if min < 1 {
		min = 1
	}
	if snap.ManualEntryCount >= min {
		is := issue.New(issue.KindManualEntriesDetected, ConfidenceManualEntries)
		is.Detail = fmt.Sprintf("%d manually entered record(s) found in today's data.", snap.ManualEntryCount)
		out = append(out, is)
	}

	return out, nil
}

// duplicateSourceTypes returns the source types claimed by more than one
// source, in first-seen order.
func duplicateSourceTypes(sources []Source) []string {
	counts := make(map[string]int)
	var order []string
	for _, s := range sources {
		if s.Type == "" {
			continue
		}
		if counts[s.Type] == 0 {
			order = append(order, s.Type)
		}
		counts[s.Type]++
	}

	var dup []string
	for _, t := range order {
		if counts[t] > 1 {
			dup = append(dup, t)
		}
	}
	return dup
}
