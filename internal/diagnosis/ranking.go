package diagnosis

import "github.com/stridelabs/sleuth/internal/issue"

// IssueRanker selects the primary issue by composite score. Stateless; the
// zero value is ready to use.
type IssueRanker struct{}

// Score computes the ranking value for a single issue: a fixed blend of how
// broken the kind is, how sure the signal layer is, and how directly the
// user can act on it. Unknown kinds contribute zero criticality and
// actionability, so only their confidence counts.
func (IssueRanker) Score(is issue.Issue) float64 {
	return WeightCriticality*issue.Criticality(is.Kind) +
		WeightConfidence*is.Confidence +
		WeightActionability*issue.Actionability(is.Kind)
}

// Rank returns the highest-scoring issue as primary and the remaining issues
// as secondary, preserving their input order. Ties keep the earliest input
// (the comparison is strictly greater, so later equal scores never displace
// an earlier winner). Empty input yields (nil, empty) and is not an error.
// The returned primary is a copy; the input slice is not modified.
func (r IssueRanker) Rank(issues []issue.Issue) (*issue.Issue, []issue.Issue) {
	if len(issues) == 0 {
		return nil, []issue.Issue{}
	}

	best := 0
	bestScore := r.Score(issues[0])
	for i := 1; i < len(issues); i++ {
		if s := r.Score(issues[i]); s > bestScore {
			best, bestScore = i, s
		}
	}

	primary := issues[best]
	secondary := make([]issue.Issue, 0, len(issues)-1)
	for i, is := range issues {
		if i == best {
			continue
		}
		secondary = append(secondary, is)
	}
	return &primary, secondary
}
