package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelabs/sleuth/internal/issue"
)

func TestLinkEmitsWhenBothKindsPresent(t *testing.T) {
	in := []issue.Issue{
		issue.New(issue.KindBatteryOptimization, 0.75),
		issue.New(issue.KindNoRecentActivityData, 0.65),
	}

	links := CausalLinker{}.Link(in)

	require.Len(t, links, 1)
	assert.Equal(t, issue.KindBatteryOptimization, links[0].Cause)
	assert.Equal(t, issue.KindNoRecentActivityData, links[0].Effect)
	assert.NotEmpty(t, links[0].Explanation)
	assert.InDelta(t, 0.70, links[0].Confidence, 1e-9)
}

func TestLinkRequiresBothSides(t *testing.T) {
	tests := []struct {
		name string
		in   []issue.Issue
	}{
		{
			name: "cause alone",
			in:   []issue.Issue{issue.New(issue.KindBatteryOptimization, 0.75)},
		},
		{
			name: "effect alone",
			in:   []issue.Issue{issue.New(issue.KindNoRecentActivityData, 0.65)},
		},
		{
			name: "unrelated kinds",
			in: []issue.Issue{
				issue.New(issue.KindDeviceOffline, 0.85),
				issue.New(issue.KindManualEntriesDetected, 0.99),
			},
		},
		{name: "empty input", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := CausalLinker{}.Link(tt.in)
			assert.Empty(t, links)
		})
	}
}

func TestLinkEmissionFollowsTableOrder(t *testing.T) {
	// All four rules armed at once: emission order is table order, not
	// input order.
	in := []issue.Issue{
		issue.New(issue.KindCountDiscrepancy, 0.65),
		issue.New(issue.KindNoRecentActivityData, 0.50),
		issue.New(issue.KindNoDataSources, 0.90),
		issue.New(issue.KindMultipleSourceConflict, 0.70),
		issue.New(issue.KindLowPowerMode, 0.95),
		issue.New(issue.KindBatteryOptimization, 0.60),
	}

	links := CausalLinker{}.Link(in)

	require.Len(t, links, 4)
	assert.Equal(t, issue.KindBatteryOptimization, links[0].Cause)
	assert.Equal(t, issue.KindLowPowerMode, links[1].Cause)
	assert.Equal(t, issue.KindMultipleSourceConflict, links[2].Cause)
	assert.Equal(t, issue.KindNoDataSources, links[3].Cause)
}

func TestLinkUsesFirstOccurrenceOfDuplicatedKind(t *testing.T) {
	in := []issue.Issue{
		issue.New(issue.KindBatteryOptimization, 0.80),
		issue.New(issue.KindBatteryOptimization, 0.20),
		issue.New(issue.KindNoRecentActivityData, 0.60),
	}

	links := CausalLinker{}.Link(in)

	require.Len(t, links, 1)
	assert.InDelta(t, 0.70, links[0].Confidence, 1e-9)
}
