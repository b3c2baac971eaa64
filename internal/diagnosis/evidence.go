package diagnosis

import "github.com/stridelabs/sleuth/internal/issue"

// correlationRule revises the confidence of issues of the target kind when
// at least one of the evidence kinds appears in the same run. Sensitivity is
// P(evidence present | target real); specificity is
// P(evidence absent | target not real). Together they set the likelihood
// ratio applied to the target's prior odds.
type correlationRule struct {
	target      issue.Kind
	evidence    []issue.Kind
	sensitivity float64
	specificity float64

	// platform restricts the rule to snapshots from one platform.
	// PlatformUnknown means the rule applies everywhere.
	platform issue.Platform
}

// correlationRules is the fixed revision table. Order matters: for each
// issue the first rule whose target matches and whose evidence is present
// fires, and the rest are not consulted. That single-rule behavior is part
// of the contract; reordering the table changes results.
var correlationRules = []correlationRule{
	{
		target:      issue.KindBatteryOptimization,
		evidence:    []issue.Kind{issue.KindNoRecentActivityData},
		sensitivity: 0.80,
		specificity: 0.60,
	},
	{
		target:      issue.KindNoRecentActivityData,
		evidence:    []issue.Kind{issue.KindBatteryOptimization, issue.KindLowPowerMode},
		sensitivity: 0.85,
		specificity: 0.70,
	},
	{
		target:      issue.KindNoRecentActivityData,
		evidence:    []issue.Kind{issue.KindNoDataSources},
		sensitivity: 0.50,
		specificity: 0.50,
	},
	{
		// Force-quit only implies suspended background collection on the
		// platform that freezes swiped-away apps.
		target:      issue.KindLowPowerMode,
		evidence:    []issue.Kind{issue.KindAppForceQuit},
		sensitivity: 0.92,
		specificity: 0.80,
		platform:    issue.PlatformIOS,
	},
	{
		target:      issue.KindMultipleSourceConflict,
		evidence:    []issue.Kind{issue.KindCountDiscrepancy},
		sensitivity: 0.90,
		specificity: 0.75,
	},
}

// EvidenceUpdater revises issue confidences using pairwise correlations
// between issues observed in the same run. Stateless; the zero value is
// ready to use.
type EvidenceUpdater struct{}

// Update returns a copy of issues with revised confidences. Each issue gets
// at most one Bayesian likelihood-ratio update, from the first matching rule
// whose evidence is present; everything else passes through unchanged. One
// call applies one bounded update per issue, never an iteration to a fixed
// point. The input slice and its issues are not modified.
func (EvidenceUpdater) Update(issues []issue.Issue, platform issue.Platform) []issue.Issue {
	if len(issues) == 0 {
		return []issue.Issue{}
	}

	present := make(map[issue.Kind]bool, len(issues))
	for _, is := range issues {
		present[is.Kind] = true
	}

	out := make([]issue.Issue, len(issues))
	for i, is := range issues {
		out[i] = is
		rule, ok := firstMatch(is.Kind, present, platform)
		if !ok {
			continue
		}
		out[i].Confidence = bayesianPosterior(is.Confidence, rule.sensitivity, rule.specificity)
	}
	return out
}

// firstMatch returns the first rule targeting kind whose platform gate
// passes and whose evidence is present.
func firstMatch(kind issue.Kind, present map[issue.Kind]bool, platform issue.Platform) (correlationRule, bool) {
	for _, r := range correlationRules {
		if r.target != kind {
			continue
		}
		if r.platform != issue.PlatformUnknown && r.platform != platform {
			continue
		}
		if !anyPresent(r.evidence, present) {
			continue
		}
		return r, true
	}
	return correlationRule{}, false
}

func anyPresent(kinds []issue.Kind, present map[issue.Kind]bool) bool {
	for _, k := range kinds {
		if present[k] {
			return true
		}
	}
	return false
}

// bayesianPosterior applies a single likelihood-ratio update to the prior:
//
//	LR        = sensitivity / (1 - specificity)
//	postOdds  = prior/(1-prior) * LR
//	posterior = postOdds / (postOdds + 1)
//
// Degenerate priors (already certain either way) and rates outside (0,1]
// leave the prior untouched: there is nothing to revise, or nothing
// trustworthy to revise with. Perfectly specific evidence saturates the
// posterior at 1 instead of dividing by zero.
func bayesianPosterior(prior, sensitivity, specificity float64) float64 {
	if prior <= 0 || prior >= 1 {
		return prior
	}
	if sensitivity <= 0 || sensitivity > 1 {
		return prior
	}
	if specificity <= 0 || specificity > 1 {
		return prior
	}
	if specificity == 1 {
		return 1
	}

	lr := sensitivity / (1 - specificity)
	preOdds := prior / (1 - prior)
	postOdds := preOdds * lr
	return issue.ClampConfidence(postOdds / (postOdds + 1))
}
