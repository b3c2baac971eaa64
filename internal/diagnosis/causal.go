package diagnosis

import "github.com/stridelabs/sleuth/internal/issue"

// causalRule is one fixed cause→effect relationship between issue kinds.
type causalRule struct {
	cause       issue.Kind
	effect      issue.Kind
	explanation string
}

// causalRules is the fixed link table. Links are emitted in table order.
var causalRules = []causalRule{
	{
		cause:       issue.KindBatteryOptimization,
		effect:      issue.KindNoRecentActivityData,
		explanation: "Battery optimization is restricting background activity, so new activity samples stop being recorded.",
	},
	{
		cause:       issue.KindLowPowerMode,
		effect:      issue.KindNoRecentActivityData,
		explanation: "Low power mode suspends background refresh, so activity data stops flowing in.",
	},
	{
		cause:       issue.KindMultipleSourceConflict,
		effect:      issue.KindCountDiscrepancy,
		explanation: "Multiple sources report the same activity, so totals disagree between views.",
	},
	{
		cause:       issue.KindNoDataSources,
		effect:      issue.KindNoRecentActivityData,
		explanation: "No data source is connected, so there is nothing to record activity from.",
	},
}

// CausalLinker derives cause→effect links between issues present in the same
// run. Stateless; the zero value is ready to use.
type CausalLinker struct{}

// Link emits one CausalLink per rule whose cause and effect kinds are both
// present. Link confidence is the mean of the two issues' confidences, read
// from the set after evidence updating. Duplicate kinds in the input
// contribute their first occurrence.
func (CausalLinker) Link(issues []issue.Issue) []CausalLink {
	first := make(map[issue.Kind]issue.Issue, len(issues))
	for _, is := range issues {
		if _, seen := first[is.Kind]; !seen {
			first[is.Kind] = is
		}
	}

	links := []CausalLink{}
	for _, r := range causalRules {
		cause, okCause := first[r.cause]
		effect, okEffect := first[r.effect]
		if !okCause || !okEffect {
			continue
		}
		links = append(links, CausalLink{
			Cause:       r.cause,
			Effect:      r.effect,
			Explanation: r.explanation,
			Confidence:  issue.ClampConfidence((cause.Confidence + effect.Confidence) / 2),
		})
	}
	return links
}
