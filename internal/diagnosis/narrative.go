package diagnosis

import (
	"fmt"
	"strings"

	"github.com/stridelabs/sleuth/internal/issue"
)

// checksPerformed is the fixed catalogue of checks the signal collection
// layer runs. Every narrative carries it verbatim so support staff can see
// what was, and was not, inspected. The collect package asserts its
// collectors stay in sync with this list.
var checksPerformed = []string{
	"tracking permission status",
	"health platform availability",
	"battery optimization state",
	"low power mode",
	"background sync setting",
	"app lifecycle state",
	"connected data source inventory",
	"recent sample staleness",
	"per-source count agreement",
	"network connectivity",
	"provider service health",
}

// ChecksPerformed returns the fixed catalogue of signal layer checks.
func ChecksPerformed() []string {
	out := make([]string, len(checksPerformed))
	copy(out, checksPerformed)
	return out
}

// allClearText is the narrative body when diagnosis finds nothing.
const allClearText = "No tracking issues detected. Activity collection looks healthy."

// Confidence qualifiers, one per band.
const (
	qualifierHigh     = "high confidence — directly verifiable"
	qualifierGood     = "good confidence — multiple correlated signals"
	qualifierModerate = "moderate confidence — likely but not certain"
	qualifierLow      = "lower confidence — best available estimate"
)

// NarrativeBuilder renders a ranked diagnosis into fixed-template prose. It
// formats numbers that earlier stages computed and never recomputes or
// adjusts them; the percentage in the text always round-trips to the primary
// issue's confidence. Stateless; the zero value is ready to use.
type NarrativeBuilder struct{}

// Build assembles the narrative: primary statement with confidence
// percentage, the causal explanation involving the primary (if any), a
// confidence qualifier, the fixed impact sentence for the primary kind, and
// a closing count of other notable issues. With no primary it produces the
// fixed all-clear text.
func (NarrativeBuilder) Build(primary *issue.Issue, issues []issue.Issue, links []CausalLink) Narrative {
	n := Narrative{ChecksPerformed: ChecksPerformed()}

	if primary == nil {
		n.Text = allClearText
		return n
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Primary issue: %s (confidence: %.0f%%).", displayTitle(*primary), primary.Confidence*100)

	if link, ok := linkInvolving(primary.Kind, links); ok {
		b.WriteString(" ")
		b.WriteString(link.Explanation)
	}

	fmt.Fprintf(&b, " Assessment: %s.", qualifier(primary.Confidence))

	b.WriteString(" ")
	b.WriteString(issue.Impact(primary.Kind))

	if extra := notableOthers(primary, issues); extra > 0 {
		if extra == 1 {
			b.WriteString(" 1 additional issue was detected alongside it.")
		} else {
			fmt.Fprintf(&b, " %d additional issues were detected alongside it.", extra)
		}
	}

	n.Text = b.String()
	n.PrimaryIssue = displayTitle(*primary)
	n.PrimaryConfidence = primary.Confidence
	return n
}

// displayTitle prefers the issue's own title; boundary input may arrive
// without one, in which case the catalog title (or the raw kind) stands in.
func displayTitle(is issue.Issue) string {
	if is.Title != "" {
		return is.Title
	}
	return issue.Title(is.Kind)
}

// linkInvolving returns the first emitted link that has kind as cause or
// effect.
func linkInvolving(kind issue.Kind, links []CausalLink) (CausalLink, bool) {
	for _, l := range links {
		if l.Cause == kind || l.Effect == kind {
			return l, true
		}
	}
	return CausalLink{}, false
}

// qualifier maps a confidence to its band wording, checking bands from the
// top down.
func qualifier(confidence float64) string {
	switch {
	case confidence >= BandHigh:
		return qualifierHigh
	case confidence >= BandGood:
		return qualifierGood
	case confidence >= BandModerate:
		return qualifierModerate
	default:
		return qualifierLow
	}
}

// notableOthers counts non-primary issues confident enough to mention. The
// primary is excluded by skipping its first exact occurrence, so a
// duplicated kind still counts the remaining copies.
func notableOthers(primary *issue.Issue, issues []issue.Issue) int {
	count := 0
	skipped := false
	for _, is := range issues {
		if !skipped && is == *primary {
			skipped = true
			continue
		}
		if is.Confidence >= NotableSecondaryThreshold {
			count++
		}
	}
	return count
}
