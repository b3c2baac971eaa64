package diagnosis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelabs/sleuth/internal/issue"
)

func TestBuildAllClear(t *testing.T) {
	n := NarrativeBuilder{}.Build(nil, nil, nil)

	assert.Equal(t, allClearText, n.Text)
	assert.Equal(t, ChecksPerformed(), n.ChecksPerformed)
	assert.Empty(t, n.PrimaryIssue)
	assert.Zero(t, n.PrimaryConfidence)
}

func TestBuildPrimaryStatementRoundTripsConfidence(t *testing.T) {
	primary := issue.New(issue.KindBatteryOptimization, 0.7391)
	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{primary}, nil)

	// The percentage in the text is a formatting of the stored confidence,
	// never a recomputation.
	want := fmt.Sprintf("(confidence: %.0f%%)", primary.Confidence*100)
	assert.Contains(t, n.Text, want)
	assert.Equal(t, primary.Confidence, n.PrimaryConfidence)
	assert.Equal(t, primary.Title, n.PrimaryIssue)
	assert.True(t, strings.HasPrefix(n.Text, "Primary issue: "+primary.Title))
}

func TestBuildIncludesCausalExplanationVerbatim(t *testing.T) {
	primary := issue.New(issue.KindBatteryOptimization, 0.75)
	other := issue.New(issue.KindNoRecentActivityData, 0.65)
	links := CausalLinker{}.Link([]issue.Issue{primary, other})
	require.Len(t, links, 1)

	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{primary, other}, links)

	assert.Contains(t, n.Text, links[0].Explanation)
}

func TestBuildMentionsLinkWherePrimaryIsEffect(t *testing.T) {
	cause := issue.New(issue.KindNoDataSources, 0.90)
	primary := issue.New(issue.KindNoRecentActivityData, 0.50)
	links := CausalLinker{}.Link([]issue.Issue{cause, primary})
	require.Len(t, links, 1)

	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{cause, primary}, links)

	assert.Contains(t, n.Text, links[0].Explanation)
}

func TestBuildOmitsUnrelatedLinks(t *testing.T) {
	primary := issue.New(issue.KindDeviceOffline, 0.85)
	conflict := issue.New(issue.KindMultipleSourceConflict, 0.70)
	discrepancy := issue.New(issue.KindCountDiscrepancy, 0.65)
	all := []issue.Issue{primary, conflict, discrepancy}
	links := CausalLinker{}.Link(all)
	require.Len(t, links, 1)

	n := NarrativeBuilder{}.Build(&primary, all, links)

	assert.NotContains(t, n.Text, links[0].Explanation)
}

func TestQualifierBands(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       string
	}{
		{name: "top of scale", confidence: 1.00, want: qualifierHigh},
		{name: "high boundary", confidence: 0.95, want: qualifierHigh},
		{name: "just below high", confidence: 0.9499, want: qualifierGood},
		{name: "good boundary", confidence: 0.85, want: qualifierGood},
		{name: "just below good", confidence: 0.8499, want: qualifierModerate},
		{name: "moderate boundary", confidence: 0.70, want: qualifierModerate},
		{name: "just below moderate", confidence: 0.6999, want: qualifierLow},
		{name: "bottom of scale", confidence: 0, want: qualifierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualifier(tt.confidence))
		})
	}
}

func TestBuildAppendsImpactSentence(t *testing.T) {
	primary := issue.New(issue.KindLowPowerMode, 0.95)

	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{primary}, nil)

	assert.Contains(t, n.Text, issue.Impact(issue.KindLowPowerMode))
}

func TestBuildCountsNotableSecondaries(t *testing.T) {
	primary := issue.New(issue.KindPermissionsNotGranted, 0.98)

	tests := []struct {
		name   string
		others []issue.Issue
		want   string
		absent bool
	}{
		{
			name: "two notable others",
			others: []issue.Issue{
				issue.New(issue.KindDeviceOffline, 0.85),
				issue.New(issue.KindBackgroundSyncDisabled, 0.92),
			},
			want: "2 additional issues were detected alongside it.",
		},
		{
			name:   "single notable other",
			others: []issue.Issue{issue.New(issue.KindDeviceOffline, 0.85)},
			want:   "1 additional issue was detected alongside it.",
		},
		{
			name:   "quiet others stay unmentioned",
			others: []issue.Issue{issue.New(issue.KindCountDiscrepancy, 0.65)},
			absent: true,
		},
		{
			name:   "no others",
			others: nil,
			absent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := append([]issue.Issue{primary}, tt.others...)
			n := NarrativeBuilder{}.Build(&primary, all, nil)
			if tt.absent {
				assert.NotContains(t, n.Text, "additional issue")
				return
			}
			assert.Contains(t, n.Text, tt.want)
		})
	}
}

func TestBuildDuplicatePrimaryKindStillCounted(t *testing.T) {
	primary := issue.New(issue.KindDeviceOffline, 0.85)
	twin := issue.New(issue.KindDeviceOffline, 0.85)

	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{primary, twin}, nil)

	// Only the primary's own occurrence is excluded; its twin counts.
	assert.Contains(t, n.Text, "1 additional issue was detected alongside it.")
}

func TestBuildFallsBackToCatalogTitle(t *testing.T) {
	// Boundary input may carry a bare kind without a title.
	primary := issue.Issue{Kind: issue.KindDeviceOffline, Confidence: 0.85}

	n := NarrativeBuilder{}.Build(&primary, []issue.Issue{primary}, nil)

	assert.Contains(t, n.Text, issue.Title(issue.KindDeviceOffline))
	assert.Equal(t, issue.Title(issue.KindDeviceOffline), n.PrimaryIssue)
}

func TestChecksPerformedIsCopied(t *testing.T) {
	a := ChecksPerformed()
	a[0] = "tampered"

	assert.NotEqual(t, a[0], ChecksPerformed()[0])
}
