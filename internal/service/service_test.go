package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/issue"
)

func newTestDiagnostician(t *testing.T, opts Options) *Diagnostician {
	t.Helper()
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}
	d, err := NewDiagnostician(collect.NewRunner(), opts)
	require.NoError(t, err)
	return d
}

func healthySnapshot() collect.Snapshot {
	now := time.Now().UTC()
	last := now.Add(-2 * time.Hour)
	return collect.Snapshot{
		Platform:              "android",
		AppVersion:            "2.5.0",
		PermissionsGranted:    true,
		PlatformDataAvailable: true,
		BackgroundSyncEnabled: true,
		Online:                true,
		ServiceHealthy:        true,
		Sources: []collect.Source{
			{Name: "pixel-watch", Type: "steps"},
		},
		LastSampleAt:       &last,
		DailyStepsBySource: map[string]int{"pixel-watch": 6200},
		CapturedAt:         now,
	}
}

func degradedSnapshot() collect.Snapshot {
	snap := healthySnapshot()
	snap.PermissionsGranted = false
	snap.BatteryOptimizationRestricted = true
	snap.Online = false
	old := time.Now().UTC().Add(-72 * time.Hour)
	snap.LastSampleAt = &old
	return snap
}

func TestNewDiagnosticianRequiresRunner(t *testing.T) {
	_, err := NewDiagnostician(nil, Options{})
	assert.Error(t, err)
}

func TestDiagnoseHappyPath(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	report, err := d.Diagnose(context.Background(), "user-1", degradedSnapshot(), time.Time{})
	require.NoError(t, err)
	require.NotNil(t, report)

	// Identity stamping.
	assert.Equal(t, "user-1", report.UserID)
	_, parseErr := uuid.Parse(report.ID)
	assert.NoError(t, parseErr)
	assert.False(t, report.Metadata.GeneratedAt.IsZero())

	// Permissions dominates the degraded set.
	require.NotNil(t, report.Primary)
	assert.Equal(t, issue.KindPermissionsNotGranted, report.Primary.Kind)
	assert.Equal(t, 4, report.Metadata.IssuesEvaluated)
	assert.Equal(t, 1, report.Metadata.LinksFound)
	assert.InDelta(t, 0.986, report.OverallConfidence, 1e-9)
}

func TestDiagnoseCachesLastReport(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	_, ok := d.LastReport("user-1")
	assert.False(t, ok)

	report, err := d.Diagnose(context.Background(), "user-1", healthySnapshot(), time.Time{})
	require.NoError(t, err)

	cached, ok := d.LastReport("user-1")
	require.True(t, ok)
	assert.Equal(t, report.ID, cached.ID)

	// A new run replaces the cached report.
	second, err := d.Diagnose(context.Background(), "user-1", degradedSnapshot(), time.Time{})
	require.NoError(t, err)

	cached, ok = d.LastReport("user-1")
	require.True(t, ok)
	assert.Equal(t, second.ID, cached.ID)
	assert.NotEqual(t, report.ID, cached.ID)
}

func TestDiagnoseCacheEviction(t *testing.T) {
	d := newTestDiagnostician(t, Options{CacheSize: 1})

	_, err := d.Diagnose(context.Background(), "user-1", healthySnapshot(), time.Time{})
	require.NoError(t, err)
	_, err = d.Diagnose(context.Background(), "user-2", healthySnapshot(), time.Time{})
	require.NoError(t, err)

	_, ok := d.LastReport("user-1")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = d.LastReport("user-2")
	assert.True(t, ok)
}

func TestDiagnoseRequiresUserID(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	_, err := d.Diagnose(context.Background(), "", healthySnapshot(), time.Time{})
	require.Error(t, err)

	var verr *collect.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDiagnoseRejectsInvalidSnapshot(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	snap := healthySnapshot()
	snap.Platform = "symbian"

	_, err := d.Diagnose(context.Background(), "user-1", snap, time.Time{})
	require.Error(t, err)

	_, ok := d.LastReport("user-1")
	assert.False(t, ok, "rejected runs must not be cached")
}

func TestDiagnoseMinAppVersionGate(t *testing.T) {
	d := newTestDiagnostician(t, Options{MinAppVersion: "2.0.0"})

	snap := healthySnapshot()
	snap.AppVersion = "1.4.2"

	_, err := d.Diagnose(context.Background(), "user-1", snap, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")

	snap.AppVersion = "2.4.0"
	_, err = d.Diagnose(context.Background(), "user-1", snap, time.Time{})
	assert.NoError(t, err)
}

func TestDiagnoseReplayReferenceTime(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	snap := healthySnapshot()
	last := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	snap.LastSampleAt = &last
	snap.CapturedAt = last.Add(time.Hour)

	// As of one hour after the sample: healthy.
	report, err := d.Diagnose(context.Background(), "user-1", snap, last.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, report.Primary)

	// As of three days later: the same snapshot is stale.
	report, err = d.Diagnose(context.Background(), "user-1", snap, last.Add(72*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, report.Primary)
	assert.Equal(t, issue.KindNoRecentActivityData, report.Primary.Kind)
}

func TestDiagnoseMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := newTestDiagnostician(t, Options{Registerer: reg})

	_, err := d.Diagnose(context.Background(), "user-1", degradedSnapshot(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.RunsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.metrics.FailuresTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		d.metrics.PrimaryKind.WithLabelValues(string(issue.KindPermissionsNotGranted))))

	snap := healthySnapshot()
	snap.Platform = ""
	_, err = d.Diagnose(context.Background(), "user-1", snap, time.Time{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.FailuresTotal))
}

func TestDiagnoseAllClearMetricsLabel(t *testing.T) {
	d := newTestDiagnostician(t, Options{})

	_, err := d.Diagnose(context.Background(), "user-1", healthySnapshot(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.PrimaryKind.WithLabelValues("none")))
}

func TestStartStopWithCollectorsFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "collectors.yaml")

	content := `schema_version: v1
collectors:
  - name: connectivity
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	d := newTestDiagnostician(t, Options{CollectorsPath: path})

	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	defer func() {
		assert.NoError(t, d.Stop(ctx))
	}()

	// The initial config load disabled the connectivity collector.
	snap := degradedSnapshot()
	report, err := d.Diagnose(ctx, "user-1", snap, time.Time{})
	require.NoError(t, err)

	for _, sec := range report.Secondary {
		assert.NotEqual(t, issue.KindDeviceOffline, sec.Kind)
	}
	require.NotNil(t, report.Primary)
	assert.NotEqual(t, issue.KindDeviceOffline, report.Primary.Kind)
}

func TestStartFailsOnBrokenCollectorsFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "collectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: v7\n"), 0600))

	d := newTestDiagnostician(t, Options{CollectorsPath: path})
	assert.Error(t, d.Start(context.Background()))
}

func TestLifecycleComponentName(t *testing.T) {
	d := newTestDiagnostician(t, Options{})
	assert.Equal(t, "diagnostician", d.Name())
	assert.NoError(t, d.Start(context.Background()))
	assert.NoError(t, d.Stop(context.Background()))
}

func TestReadinessFollowsLifecycle(t *testing.T) {
	d := newTestDiagnostician(t, Options{})
	ctx := context.Background()

	assert.False(t, d.IsReady())
	require.NoError(t, d.Start(ctx))
	assert.True(t, d.IsReady())
	require.NoError(t, d.Stop(ctx))
	assert.False(t, d.IsReady())
}
