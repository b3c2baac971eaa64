// Package issue defines the tracking issue model shared by the signal
// collection layer and the diagnosis engine: the closed set of issue kinds,
// the immutable Issue record, and the catalog of per-kind attributes
// (criticality, actionability, impact) used for ranking and narration.
package issue

import (
	"fmt"
	"math"
)

// Kind identifies one member of the closed set of known tracking issues.
type Kind string

const (
	KindPermissionsNotGranted  Kind = "permissions-not-granted"
	KindPlatformUnavailable    Kind = "platform-unavailable"
	KindBatteryOptimization    Kind = "battery-optimization-blocking"
	KindLowPowerMode           Kind = "low-power-mode"
	KindNoRecentActivityData   Kind = "no-recent-activity-data"
	KindNoDataSources          Kind = "no-data-sources"
	KindMultipleSourceConflict Kind = "multiple-data-sources-conflict"
	KindCountDiscrepancy       Kind = "count-discrepancy"
	KindBackgroundSyncDisabled Kind = "background-sync-disabled"
	KindAppForceQuit           Kind = "app-force-quit"
	KindDeviceOffline          Kind = "device-offline"
	KindAPIRateLimited         Kind = "api-rate-limited"
	KindServiceUnavailable     Kind = "service-unavailable"
	KindManualEntriesDetected  Kind = "manual-entries-detected"
)

// allKinds is the canonical ordering of the catalog. Listing order here is
// the display order for CLI and API catalog output.
var allKinds = []Kind{
	KindPermissionsNotGranted,
	KindPlatformUnavailable,
	KindBatteryOptimization,
	KindLowPowerMode,
	KindNoRecentActivityData,
	KindNoDataSources,
	KindMultipleSourceConflict,
	KindCountDiscrepancy,
	KindBackgroundSyncDisabled,
	KindAppForceQuit,
	KindDeviceOffline,
	KindAPIRateLimited,
	KindServiceUnavailable,
	KindManualEntriesDetected,
}

// AllKinds returns the known issue kinds in catalog order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind validates a raw string against the closed kind set.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("unknown issue kind %q", s)
	}
	return k, nil
}

// IsKnown reports whether k is a member of the closed kind set.
func IsKnown(k Kind) bool {
	_, ok := catalog[k]
	return ok
}

// Issue is a single detected tracking problem as reported by the signal
// collection layer. Issues are value records: the diagnosis pipeline never
// mutates its inputs, revised confidences are carried on copies.
type Issue struct {
	Kind         Kind    `json:"kind" yaml:"kind"`
	Title        string  `json:"title" yaml:"title"`
	Detail       string  `json:"detail,omitempty" yaml:"detail,omitempty"`
	SuggestedFix string  `json:"suggested_fix,omitempty" yaml:"suggested_fix,omitempty"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
}

// New builds an Issue of a known kind with the catalog title and fix and the
// given confidence, clamped to [0,1].
func New(kind Kind, confidence float64) Issue {
	return Issue{
		Kind:         kind,
		Title:        Title(kind),
		SuggestedFix: SuggestedFix(kind),
		Confidence:   ClampConfidence(confidence),
	}
}

// Normalize returns a copy of i with its confidence forced into [0,1].
// Malformed confidence on boundary input is repaired, never rejected.
func Normalize(i Issue) Issue {
	i.Confidence = ClampConfidence(i.Confidence)
	return i
}

// NormalizeAll returns a normalized copy of the given issues. The input
// slice is left untouched.
func NormalizeAll(issues []Issue) []Issue {
	if len(issues) == 0 {
		return []Issue{}
	}
	out := make([]Issue, len(issues))
	for idx, is := range issues {
		out[idx] = Normalize(is)
	}
	return out
}

// ClampConfidence forces v into [0,1]. NaN collapses to 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
