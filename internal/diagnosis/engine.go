// Package diagnosis implements the deterministic reasoning pipeline that
// turns raw tracking issues into a ranked, explained diagnostic report.
//
// The pipeline runs four fixed stages in order: evidence updating (pairwise
// Bayesian confidence revision), causal linking, ranking, and narration. All
// stages are pure functions over value types: no I/O, no clocks, no
// randomness, no mutation of inputs. Identical inputs produce identical
// reports, which makes the engine trivially safe for concurrent use.
package diagnosis

import (
	"time"

	"github.com/google/uuid"

	"github.com/stridelabs/sleuth/internal/issue"
)

// Engine orchestrates the diagnostic pipeline.
type Engine struct {
	updater  EvidenceUpdater
	linker   CausalLinker
	ranker   IssueRanker
	narrator NarrativeBuilder
}

// NewEngine returns a ready-to-use engine. The engine holds no mutable
// state; a single instance can serve any number of concurrent callers.
func NewEngine() *Engine {
	return &Engine{}
}

// Diagnose runs the full pipeline over raw issues from the signal layer:
//
//	updated = evidence update (confidences revised against the fixed table)
//	links   = causal links over the updated set
//	ranked  = primary selection plus ordered secondaries
//	text    = narrative over primary, updated set, and links
//
// Malformed confidences are clamped on entry; empty input is a valid run
// that yields a no-findings report. Diagnose stays pure and stamps no
// identity or timing metadata; callers that want a stamped report use Run.
func (e *Engine) Diagnose(raw []issue.Issue, platform issue.Platform) Report {
	normalized := issue.NormalizeAll(raw)
	updated := e.updater.Update(normalized, platform)
	links := e.linker.Link(updated)
	primary, secondary := e.ranker.Rank(updated)
	narrative := e.narrator.Build(primary, updated, links)

	return Report{
		Platform:          platform,
		Primary:           primary,
		Secondary:         secondary,
		Links:             links,
		Narrative:         narrative,
		OverallConfidence: overallConfidence(primary),
		Metadata: ReportMetadata{
			AlgorithmVersion: AlgorithmVersion,
			IssuesEvaluated:  len(updated),
			LinksFound:       len(links),
		},
	}
}

// Run wraps Diagnose and stamps report identity and timing.
func (e *Engine) Run(raw []issue.Issue, platform issue.Platform) Report {
	start := time.Now()
	report := e.Diagnose(raw, platform)
	report.ID = uuid.NewString()
	report.Metadata.GeneratedAt = start.UTC()
	report.Metadata.EngineMillis = time.Since(start).Milliseconds()
	return report
}

// overallConfidence blends the primary issue's confidence with the
// criticality of its kind. No primary means a moderately confident
// all-clear, not certainty.
func overallConfidence(primary *issue.Issue) float64 {
	if primary == nil {
		return OverallNoFindings
	}
	return issue.ClampConfidence(
		OverallWeightConfidence*primary.Confidence +
			OverallWeightCriticality*issue.Criticality(primary.Kind))
}
