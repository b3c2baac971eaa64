package collect

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/stridelabs/sleuth/internal/issue"
)

// Source is one connected activity data source (a wearable, another app,
// the platform's own sensor pipeline).
type Source struct {
	Name       string    `json:"name" yaml:"name"`
	Type       string    `json:"type" yaml:"type"`
	LastSyncAt time.Time `json:"last_sync_at,omitempty" yaml:"last_sync_at,omitempty"`
}

// Snapshot is the raw device state the mobile app uploads for diagnosis.
// The app serializes the complete struct on capture; a field the app could
// not determine is reported as its zero value and diagnosed as such.
type Snapshot struct {
	// Platform is "android" or "ios".
	Platform string `json:"platform" yaml:"platform"`

	// AppVersion is the semver of the app build that captured the snapshot.
	AppVersion string `json:"app_version,omitempty" yaml:"app_version,omitempty"`

	PermissionsGranted            bool `json:"permissions_granted" yaml:"permissions_granted"`
	PlatformDataAvailable         bool `json:"platform_data_available" yaml:"platform_data_available"`
	BatteryOptimizationRestricted bool `json:"battery_optimization_restricted" yaml:"battery_optimization_restricted"`
	LowPowerMode                  bool `json:"low_power_mode" yaml:"low_power_mode"`
	BackgroundSyncEnabled         bool `json:"background_sync_enabled" yaml:"background_sync_enabled"`

	// ForceQuit reports whether the user swiped the app away since the last
	// successful sync. Only iOS surfaces this reliably.
	ForceQuit bool `json:"force_quit" yaml:"force_quit"`

	Online         bool `json:"online" yaml:"online"`
	RateLimited    bool `json:"rate_limited" yaml:"rate_limited"`
	ServiceHealthy bool `json:"service_healthy" yaml:"service_healthy"`

	Sources []Source `json:"sources" yaml:"sources"`

	// LastSampleAt is the timestamp of the newest recorded activity sample.
	// Nil means no sample has ever been recorded.
	LastSampleAt *time.Time `json:"last_sample_at,omitempty" yaml:"last_sample_at,omitempty"`

	// DailyStepsBySource holds today's step total as reported by each
	// source, keyed by source name.
	DailyStepsBySource map[string]int `json:"daily_steps_by_source,omitempty" yaml:"daily_steps_by_source,omitempty"`

	ManualEntryCount int `json:"manual_entry_count" yaml:"manual_entry_count"`

	// CapturedAt is when the app took the snapshot.
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
}

// ValidationError reports a snapshot that cannot be diagnosed.
type ValidationError struct {
	message string
}

// NewValidationError creates a new snapshot validation error
func NewValidationError(message string, args ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(message, args...)}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return e.message
}

// ValidateSnapshot checks the structural preconditions for diagnosis:
// a known platform and a capture timestamp.
func ValidateSnapshot(snap Snapshot) error {
	if issue.ParsePlatform(snap.Platform) == issue.PlatformUnknown {
		return NewValidationError("platform must be %q or %q, got %q",
			issue.PlatformAndroid, issue.PlatformIOS, snap.Platform)
	}
	if snap.CapturedAt.IsZero() {
		return NewValidationError("captured_at is required")
	}
	return nil
}

// CheckAppVersion rejects snapshots from app builds older than minVersion.
// An empty minVersion disables the gate. A snapshot without an app version
// passes only when no gate is configured.
func CheckAppVersion(snap Snapshot, minVersion string) error {
	if minVersion == "" {
		return nil
	}

	minVer, err := version.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum app version %q: %w", minVersion, err)
	}

	if snap.AppVersion == "" {
		return NewValidationError("app_version is required (minimum supported version is %s)", minVer.String())
	}

	snapVer, err := version.NewVersion(snap.AppVersion)
	if err != nil {
		return NewValidationError("app_version %q is not a valid version", snap.AppVersion)
	}

	if snapVer.LessThan(minVer) {
		return NewValidationError("app version %s is below minimum supported version %s",
			snapVer.String(), minVer.String())
	}

	return nil
}
