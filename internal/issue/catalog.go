package issue

import "fmt"

// catalogEntry holds the fixed per-kind attributes. criticality measures how
// severely the kind degrades tracking, actionability how directly the user
// can fix it; both feed the ranking score. impact is the fixed sentence the
// narrative appends for a primary issue of this kind.
type catalogEntry struct {
	title         string
	fix           string
	impact        string
	criticality   float64
	actionability float64
}

// catalog is the single source of truth for per-kind attributes. Values are
// frozen: tests pin them, and changing one changes ranking outcomes.
var catalog = map[Kind]catalogEntry{
	KindPermissionsNotGranted: {
		title:         "Tracking permission not granted",
		fix:           "Grant activity tracking permission in system settings.",
		impact:        "Without tracking permission, no activity data can be read at all.",
		criticality:   1.0,
		actionability: 1.0,
	},
	KindPlatformUnavailable: {
		title:         "Health platform unavailable",
		fix:           "Use a device with a supported health platform, or connect an external source.",
		impact:        "The device health platform is unavailable, so tracking cannot function on this device.",
		criticality:   1.0,
		actionability: 0.2,
	},
	KindBatteryOptimization: {
		title:         "Battery optimization is limiting tracking",
		fix:           "Exclude the app from battery optimization in system settings.",
		impact:        "Background step counting pauses whenever the system suspends the app, so daily totals come out too low.",
		criticality:   0.8,
		actionability: 1.0,
	},
	KindLowPowerMode: {
		title:         "Low power mode is on",
		fix:           "Turn off low power mode or plug in the device.",
		impact:        "While low power mode is on, background refresh stops and activity syncs fall behind.",
		criticality:   0.6,
		actionability: 0.9,
	},
	KindNoRecentActivityData: {
		title:         "No recent activity data",
		fix:           "Open the app to trigger a sync; check permissions and power settings if it persists.",
		impact:        "Dashboards and goals are running on stale numbers until fresh samples arrive.",
		criticality:   0.7,
		actionability: 0.4,
	},
	KindNoDataSources: {
		title:         "No data sources connected",
		fix:           "Connect at least one data source (phone sensors, watch, or a partner app).",
		impact:        "With no connected source, the activity timeline stays empty.",
		criticality:   0.9,
		actionability: 0.7,
	},
	KindMultipleSourceConflict: {
		title:         "Multiple sources report the same activity",
		fix:           "Pick one primary source per activity type in source settings.",
		impact:        "Overlapping sources double-count the same movement, inflating totals.",
		criticality:   0.5,
		actionability: 0.6,
	},
	KindCountDiscrepancy: {
		title:         "Step counts disagree between sources",
		fix:           "Choose a preferred source; duplicates are then reconciled automatically.",
		impact:        "Step totals differ between views, which undermines trust in the numbers.",
		criticality:   0.2,
		actionability: 0.3,
	},
	KindBackgroundSyncDisabled: {
		title:         "Background sync is turned off",
		fix:           "Enable background sync in the app settings.",
		impact:        "Data only syncs while the app is open in the foreground.",
		criticality:   0.7,
		actionability: 0.9,
	},
	KindAppForceQuit: {
		title:         "App was force quit",
		fix:           "Reopen the app and avoid swiping it away; background collection resumes on launch.",
		impact:        "After a force quit the app cannot resume background collection until reopened.",
		criticality:   0.6,
		actionability: 0.8,
	},
	KindDeviceOffline: {
		title:         "Device is offline",
		fix:           "Reconnect to a network; queued samples upload automatically.",
		impact:        "New samples stay on the device and reach the service only after reconnection.",
		criticality:   0.5,
		actionability: 0.6,
	},
	KindAPIRateLimited: {
		title:         "Provider API rate limit reached",
		fix:           "Wait a few minutes and retry; the limit resets automatically.",
		impact:        "Provider requests are throttled, delaying fresh data.",
		criticality:   0.4,
		actionability: 0.1,
	},
	KindServiceUnavailable: {
		title:         "Tracking service unavailable",
		fix:           "Wait for the provider to recover; no action needed on the device.",
		impact:        "The tracking service is temporarily unreachable, so syncs fail.",
		criticality:   0.8,
		actionability: 0.1,
	},
	KindManualEntriesDetected: {
		title:         "Manual entries detected",
		fix:           "Review manual entries and remove duplicates of tracked activity.",
		impact:        "Manually entered activity mixes with sensor data and may skew totals.",
		criticality:   0.3,
		actionability: 0.5,
	},
}

// impactFallback is returned for kinds outside the closed set. Boundary
// input with an unknown kind is tolerated, not rejected.
const impactFallback = "Impact on tracking is not classified for this issue."

func init() {
	// A kind listed without a catalog entry (or vice versa) is a programming
	// error; fail at startup rather than score it silently as zero.
	if len(allKinds) != len(catalog) {
		panic(fmt.Sprintf("issue: catalog has %d entries for %d kinds", len(catalog), len(allKinds)))
	}
	for _, k := range allKinds {
		if _, ok := catalog[k]; !ok {
			panic(fmt.Sprintf("issue: kind %q missing from catalog", k))
		}
	}
}

// Criticality returns how severely the kind degrades tracking, in [0,1].
// Unknown kinds score 0.
func Criticality(k Kind) float64 {
	if e, ok := catalog[k]; ok {
		return e.criticality
	}
	return 0
}

// Actionability returns how directly the user can fix the kind, in [0,1].
// Unknown kinds score 0.
func Actionability(k Kind) float64 {
	if e, ok := catalog[k]; ok {
		return e.actionability
	}
	return 0
}

// Impact returns the fixed impact sentence for the kind.
func Impact(k Kind) string {
	if e, ok := catalog[k]; ok {
		return e.impact
	}
	return impactFallback
}

// Title returns the catalog display title for the kind.
func Title(k Kind) string {
	if e, ok := catalog[k]; ok {
		return e.title
	}
	return string(k)
}

// SuggestedFix returns the catalog fix suggestion for the kind.
func SuggestedFix(k Kind) string {
	if e, ok := catalog[k]; ok {
		return e.fix
	}
	return ""
}
