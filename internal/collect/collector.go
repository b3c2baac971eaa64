// Package collect is the signal collection boundary: independent checks
// over a device snapshot, each emitting zero or more issues with that
// check's documented initial confidence. The diagnosis engine consumes the
// combined issue list and never invents issues this layer did not supply.
package collect

import (
	"context"
	"time"

	"github.com/stridelabs/sleuth/internal/issue"
)

// Initial confidences assigned by each check. These are the priors the
// diagnosis engine revises with cross-signal evidence; changing one changes
// ranking outcomes, so they are fixed here rather than configurable.
const (
	ConfidencePermissions    = 0.98
	ConfidencePlatform       = 0.97
	ConfidenceBattery        = 0.60
	ConfidenceLowPower       = 0.95
	ConfidenceForceQuit      = 0.55
	ConfidenceBackgroundSync = 0.92
	ConfidenceNoSources      = 0.90
	ConfidenceSourceConflict = 0.70
	ConfidenceManualEntries  = 0.99
	ConfidenceStaleness      = 0.50
	ConfidenceCountMismatch  = 0.65
	ConfidenceOffline        = 0.85
	ConfidenceRateLimited    = 0.80
	ConfidenceServiceUnavail = 0.75
)

// Params carries the tunables shared across collectors. A zero
// ReferenceTime means "evaluate against the current time".
type Params struct {
	// ReferenceTime anchors staleness evaluation; used for replaying
	// captured snapshots against a past point in time.
	ReferenceTime time.Time

	// StalenessThreshold is the maximum age of the newest sample before
	// the data counts as stale.
	StalenessThreshold time.Duration

	// CountTolerance is the relative spread between per-source daily
	// counts tolerated before they count as a discrepancy.
	CountTolerance float64

	// ManualEntryMin is the manual entry count at which manual data is
	// flagged.
	ManualEntryMin int
}

// DefaultParams returns the built-in tunables.
func DefaultParams() Params {
	return Params{
		StalenessThreshold: 24 * time.Hour,
		CountTolerance:     0.15,
		ManualEntryMin:     1,
	}
}

// Reference resolves the effective reference time.
func (p Params) Reference() time.Time {
	if p.ReferenceTime.IsZero() {
		return time.Now().UTC()
	}
	return p.ReferenceTime
}

// Collector is one independent check over a snapshot.
type Collector interface {
	// Name is the registry key, also used in config overrides and metrics.
	Name() string

	// Checks describes what this collector inspects, phrased for the
	// report's checks-performed list.
	Checks() []string

	// Collect inspects the snapshot and returns the issues it detected.
	// No detected issue is a nil or empty slice, not an error.
	Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error)
}

// defaultCollectors returns the full check set in canonical registration
// order. The order is load-bearing: the runner flattens results in this
// order, which fixes ranking tie-breaks downstream.
func defaultCollectors() []Collector {
	return []Collector{
		&PermissionsCollector{},
		&PlatformCollector{},
		&PowerCollector{},
		&LifecycleCollector{},
		&SourcesCollector{},
		&StalenessCollector{},
		&IntegrityCollector{},
		&ConnectivityCollector{},
	}
}
