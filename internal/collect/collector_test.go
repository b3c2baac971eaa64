package collect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelabs/sleuth/internal/diagnosis"
	"github.com/stridelabs/sleuth/internal/issue"
)

// healthySnapshot returns a snapshot that triggers no collector.
func healthySnapshot() Snapshot {
	now := time.Now().UTC()
	last := now.Add(-2 * time.Hour)
	return Snapshot{
		Platform:              "android",
		AppVersion:            "2.5.0",
		PermissionsGranted:    true,
		PlatformDataAvailable: true,
		BackgroundSyncEnabled: true,
		Online:                true,
		ServiceHealthy:        true,
		Sources: []Source{
			{Name: "pixel-watch", Type: "steps", LastSyncAt: now.Add(-time.Hour)},
		},
		LastSampleAt:       &last,
		DailyStepsBySource: map[string]int{"pixel-watch": 6200},
		CapturedAt:         now,
	}
}

func collectOne(t *testing.T, c Collector, snap Snapshot, params Params) []issue.Issue {
	t.Helper()
	issues, err := c.Collect(context.Background(), snap, params)
	require.NoError(t, err)
	return issues
}

func kindsOf(issues []issue.Issue) []issue.Kind {
	var kinds []issue.Kind
	for _, is := range issues {
		kinds = append(kinds, is.Kind)
	}
	return kinds
}

func TestHealthySnapshotEmitsNothing(t *testing.T) {
	snap := healthySnapshot()
	for _, c := range defaultCollectors() {
		issues := collectOne(t, c, snap, DefaultParams())
		assert.Empty(t, issues, "collector %s emitted issues for a healthy snapshot", c.Name())
	}
}

func TestPermissionsCollector(t *testing.T) {
	snap := healthySnapshot()
	snap.PermissionsGranted = false

	issues := collectOne(t, &PermissionsCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindPermissionsNotGranted, issues[0].Kind)
	assert.Equal(t, ConfidencePermissions, issues[0].Confidence)
	assert.NotEmpty(t, issues[0].Title)
	assert.NotEmpty(t, issues[0].SuggestedFix)
}

func TestPlatformCollector(t *testing.T) {
	snap := healthySnapshot()
	snap.PlatformDataAvailable = false

	issues := collectOne(t, &PlatformCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindPlatformUnavailable, issues[0].Kind)
	assert.Contains(t, issues[0].Detail, "Health Connect")

	snap.Platform = "ios"
	issues = collectOne(t, &PlatformCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Detail, "HealthKit")
}

func TestPowerCollector(t *testing.T) {
	tests := []struct {
		name      string
		battery   bool
		lowPower  bool
		wantKinds []issue.Kind
	}{
		{name: "nothing restricted"},
		{
			name:      "battery optimization only",
			battery:   true,
			wantKinds: []issue.Kind{issue.KindBatteryOptimization},
		},
		{
			name:      "low power only",
			lowPower:  true,
			wantKinds: []issue.Kind{issue.KindLowPowerMode},
		},
		{
			name:      "both",
			battery:   true,
			lowPower:  true,
			wantKinds: []issue.Kind{issue.KindBatteryOptimization, issue.KindLowPowerMode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			snap.BatteryOptimizationRestricted = tt.battery
			snap.LowPowerMode = tt.lowPower

			issues := collectOne(t, &PowerCollector{}, snap, DefaultParams())
			assert.Equal(t, tt.wantKinds, kindsOf(issues))
		})
	}
}

func TestPowerCollectorConfidences(t *testing.T) {
	snap := healthySnapshot()
	snap.BatteryOptimizationRestricted = true
	snap.LowPowerMode = true

	issues := collectOne(t, &PowerCollector{}, snap, DefaultParams())
	require.Len(t, issues, 2)
	assert.Equal(t, 0.60, issues[0].Confidence)
	assert.Equal(t, 0.95, issues[1].Confidence)
}

func TestLifecycleCollectorForceQuitIOSOnly(t *testing.T) {
	snap := healthySnapshot()
	snap.ForceQuit = true

	// Android swipes don't stop scheduled work; no issue.
	issues := collectOne(t, &LifecycleCollector{}, snap, DefaultParams())
	assert.Empty(t, issues)

	snap.Platform = "ios"
	issues = collectOne(t, &LifecycleCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindAppForceQuit, issues[0].Kind)
	assert.Equal(t, ConfidenceForceQuit, issues[0].Confidence)
}

func TestLifecycleCollectorBackgroundSync(t *testing.T) {
	snap := healthySnapshot()
	snap.BackgroundSyncEnabled = false
	snap.ForceQuit = true
	snap.Platform = "ios"

	issues := collectOne(t, &LifecycleCollector{}, snap, DefaultParams())
	// Background sync issue is listed before the force-quit issue.
	assert.Equal(t, []issue.Kind{issue.KindBackgroundSyncDisabled, issue.KindAppForceQuit}, kindsOf(issues))
}

func TestSourcesCollectorNoSources(t *testing.T) {
	snap := healthySnapshot()
	snap.Sources = nil
	snap.DailyStepsBySource = nil

	issues := collectOne(t, &SourcesCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindNoDataSources, issues[0].Kind)
	assert.Equal(t, ConfidenceNoSources, issues[0].Confidence)
}

func TestSourcesCollectorConflict(t *testing.T) {
	snap := healthySnapshot()
	snap.Sources = []Source{
		{Name: "pixel-watch", Type: "steps"},
		{Name: "phone", Type: "steps"},
		{Name: "scale", Type: "weight"},
	}

	issues := collectOne(t, &SourcesCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindMultipleSourceConflict, issues[0].Kind)
	assert.Contains(t, issues[0].Detail, "steps")
	assert.NotContains(t, issues[0].Detail, "weight")
}

func TestSourcesCollectorDistinctTypesNoConflict(t *testing.T) {
	snap := healthySnapshot()
	snap.Sources = []Source{
		{Name: "pixel-watch", Type: "steps"},
		{Name: "scale", Type: "weight"},
	}

	issues := collectOne(t, &SourcesCollector{}, snap, DefaultParams())
	assert.Empty(t, issues)
}

func TestSourcesCollectorManualEntries(t *testing.T) {
	snap := healthySnapshot()
	snap.ManualEntryCount = 3

	issues := collectOne(t, &SourcesCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindManualEntriesDetected, issues[0].Kind)

	// Raising the threshold suppresses it.
	params := DefaultParams()
	params.ManualEntryMin = 5
	issues = collectOne(t, &SourcesCollector{}, snap, params)
	assert.Empty(t, issues)
}

func TestStalenessCollector(t *testing.T) {
	ref := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	params := DefaultParams()
	params.ReferenceTime = ref

	tests := []struct {
		name   string
		last   *time.Time
		want   bool
		detail string
	}{
		{
			name:   "never recorded",
			last:   nil,
			want:   true,
			detail: "ever been recorded",
		},
		{
			name: "fresh sample",
			last: timePtr(ref.Add(-2 * time.Hour)),
			want: false,
		},
		{
			name: "exactly at threshold",
			last: timePtr(ref.Add(-24 * time.Hour)),
			want: false,
		},
		{
			name:   "stale sample",
			last:   timePtr(ref.Add(-37 * time.Hour)),
			want:   true,
			detail: "37h0m0s old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			snap.LastSampleAt = tt.last

			issues := collectOne(t, &StalenessCollector{}, snap, params)
			if !tt.want {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, issue.KindNoRecentActivityData, issues[0].Kind)
			assert.Equal(t, ConfidenceStaleness, issues[0].Confidence)
			if tt.detail != "" {
				assert.Contains(t, issues[0].Detail, tt.detail)
			}
		})
	}
}

func TestStalenessCollectorCustomThreshold(t *testing.T) {
	ref := time.Now().UTC()
	params := DefaultParams()
	params.ReferenceTime = ref
	params.StalenessThreshold = 6 * time.Hour

	snap := healthySnapshot()
	snap.LastSampleAt = timePtr(ref.Add(-8 * time.Hour))

	issues := collectOne(t, &StalenessCollector{}, snap, params)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.KindNoRecentActivityData, issues[0].Kind)
}

func TestIntegrityCollector(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   bool
	}{
		{name: "single source", counts: map[string]int{"watch": 5000}},
		{name: "agreement", counts: map[string]int{"watch": 5000, "phone": 4900}},
		{name: "all zero", counts: map[string]int{"watch": 0, "phone": 0}},
		{name: "disagreement", counts: map[string]int{"watch": 9000, "phone": 5000}, want: true},
		{name: "one silent source", counts: map[string]int{"watch": 9000, "phone": 0}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			snap.DailyStepsBySource = tt.counts

			issues := collectOne(t, &IntegrityCollector{}, snap, DefaultParams())
			if !tt.want {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, issue.KindCountDiscrepancy, issues[0].Kind)
			assert.Equal(t, ConfidenceCountMismatch, issues[0].Confidence)
		})
	}
}

func TestIntegrityCollectorTolerance(t *testing.T) {
	snap := healthySnapshot()
	snap.DailyStepsBySource = map[string]int{"watch": 10000, "phone": 7500}

	// 25% spread: over the default 15% tolerance, under a configured 30%.
	issues := collectOne(t, &IntegrityCollector{}, snap, DefaultParams())
	require.Len(t, issues, 1)

	params := DefaultParams()
	params.CountTolerance = 0.30
	issues = collectOne(t, &IntegrityCollector{}, snap, params)
	assert.Empty(t, issues)
}

func TestConnectivityCollector(t *testing.T) {
	snap := healthySnapshot()
	snap.Online = false
	snap.RateLimited = true
	snap.ServiceHealthy = false

	issues := collectOne(t, &ConnectivityCollector{}, snap, DefaultParams())
	assert.Equal(t, []issue.Kind{
		issue.KindDeviceOffline,
		issue.KindAPIRateLimited,
		issue.KindServiceUnavailable,
	}, kindsOf(issues))
	assert.Equal(t, 0.85, issues[0].Confidence)
	assert.Equal(t, 0.80, issues[1].Confidence)
	assert.Equal(t, 0.75, issues[2].Confidence)
}

// TestChecksMatchNarrativeCatalogue pins the collector check descriptions to
// the checks-performed list every report carries.
func TestChecksMatchNarrativeCatalogue(t *testing.T) {
	assert.Equal(t, diagnosis.ChecksPerformed(), AllChecks())
}

func timePtr(t time.Time) *time.Time { return &t }
