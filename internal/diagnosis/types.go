package diagnosis

import (
	"time"

	"github.com/stridelabs/sleuth/internal/issue"
)

// CausalLink records one cause→effect relationship found between two issues
// present in the same run.
type CausalLink struct {
	Cause       issue.Kind `json:"cause"`
	Effect      issue.Kind `json:"effect"`
	Explanation string     `json:"explanation"`
	Confidence  float64    `json:"confidence"`
}

// Narrative is the human-readable rendition of a diagnosis. It is assembled
// from numbers the pipeline already computed; the builder never recomputes
// or adjusts them.
type Narrative struct {
	ChecksPerformed   []string `json:"checks_performed"`
	Text              string   `json:"text"`
	PrimaryIssue      string   `json:"primary_issue,omitempty"`
	PrimaryConfidence float64  `json:"primary_confidence"`
}

// ReportMetadata describes how a report was produced.
type ReportMetadata struct {
	AlgorithmVersion string    `json:"algorithm_version"`
	GeneratedAt      time.Time `json:"generated_at"`
	IssuesEvaluated  int       `json:"issues_evaluated"`
	LinksFound       int       `json:"links_found"`
	EngineMillis     int64     `json:"engine_millis"`
}

// Report is the complete outcome of one diagnosis run. Primary is nil when
// the run found nothing; Secondary preserves the input order of the
// remaining issues.
type Report struct {
	ID                string         `json:"id,omitempty"`
	UserID            string         `json:"user_id,omitempty"`
	Platform          issue.Platform `json:"platform"`
	Primary           *issue.Issue   `json:"primary,omitempty"`
	Secondary         []issue.Issue  `json:"secondary"`
	Links             []CausalLink   `json:"links"`
	Narrative         Narrative      `json:"narrative"`
	OverallConfidence float64        `json:"overall_confidence"`
	Metadata          ReportMetadata `json:"metadata"`
}
