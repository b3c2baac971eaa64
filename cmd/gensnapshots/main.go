package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/stridelabs/sleuth/internal/collect"
)

const (
	defaultOutputDir = "./testdata/snapshots"
	defaultCount     = 20
)

// profiles are the failure modes a generated snapshot can exhibit.
var profiles = []string{
	"healthy",
	"permissions",
	"offline",
	"battery",
	"stale-source",
	"force-quit",
	"rate-limited",
	"outage",
	"conflict",
	"no-sources",
	"never-synced",
}

var sourceNames = []string{
	"pixel-watch", "garmin-venu", "apple-watch", "fitbit-charge", "phone",
}

func main() {
	outputDir := flag.String("output-dir", defaultOutputDir, "Output directory for generated snapshot files")
	count := flag.Int("count", defaultCount, "Number of snapshots to generate")
	profile := flag.String("profile", "mixed", "Failure profile: 'mixed' or one of "+fmt.Sprint(profiles))
	platform := flag.String("platform", "", "Platform: 'android', 'ios', or empty for random")
	seed := flag.Int64("seed", 0, "Random seed (0 = use current time)")

	flag.Parse()

	// Initialize random seed
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	if *profile != "mixed" && !validProfile(*profile) {
		fmt.Fprintf(os.Stderr, "Unknown profile %q (valid: mixed, %v)\n", *profile, profiles)
		os.Exit(1)
	}

	fmt.Printf("Generating snapshot fixtures with:\n")
	fmt.Printf("  Output directory: %s\n", *outputDir)
	fmt.Printf("  Count: %d\n", *count)
	fmt.Printf("  Profile: %s\n", *profile)
	fmt.Printf("  Seed: %d\n", *seed)
	fmt.Println()

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		p := *profile
		if p == "mixed" {
			p = profiles[rng.Intn(len(profiles))]
		}

		snap := buildSnapshot(p, *platform, rng)

		filename := fmt.Sprintf("snapshot-%03d-%s.yaml", i+1, p)
		path := filepath.Join(*outputDir, filename)
		if err := collect.WriteSnapshot(path, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write snapshot %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Printf("  ✓ %s\n", filename)
	}

	fmt.Printf("\n✓ Successfully generated %d snapshot(s)\n", *count)
	fmt.Printf("  Output directory: %s\n", *outputDir)
}

func validProfile(name string) bool {
	for _, p := range profiles {
		if p == name {
			return true
		}
	}
	return false
}

// buildSnapshot starts from a healthy device and degrades it according to
// the profile.
func buildSnapshot(profile, platform string, rng *rand.Rand) collect.Snapshot {
	now := time.Now().UTC()

	if platform == "" {
		platform = "android"
		if rng.Intn(2) == 1 {
			platform = "ios"
		}
	}
	// Some failure modes only exist on one platform.
	switch profile {
	case "force-quit":
		platform = "ios"
	case "battery":
		platform = "android"
	}

	steps := 2000 + rng.Intn(10000)
	primary := sourceNames[rng.Intn(len(sourceNames))]
	lastSample := now.Add(-time.Duration(rng.Intn(120)) * time.Minute)

	snap := collect.Snapshot{
		Platform:                      platform,
		AppVersion:                    fmt.Sprintf("2.%d.%d", rng.Intn(9), rng.Intn(20)),
		PermissionsGranted:            true,
		PlatformDataAvailable:         true,
		BatteryOptimizationRestricted: false,
		LowPowerMode:                  false,
		BackgroundSyncEnabled:         true,
		ForceQuit:                     false,
		Online:                        true,
		RateLimited:                   false,
		ServiceHealthy:                true,
		Sources: []collect.Source{
			{Name: primary, Type: "wearable", LastSyncAt: now.Add(-time.Duration(5+rng.Intn(55)) * time.Minute)},
		},
		LastSampleAt:       &lastSample,
		DailyStepsBySource: map[string]int{primary: steps},
		ManualEntryCount:   rng.Intn(3),
		CapturedAt:         now,
	}

	switch profile {
	case "healthy":
		// Keep the base state.
	case "permissions":
		snap.PermissionsGranted = false
		snap.PlatformDataAvailable = false
	case "offline":
		snap.Online = false
	case "battery":
		snap.BatteryOptimizationRestricted = true
		snap.LowPowerMode = rng.Intn(2) == 1
	case "stale-source":
		staleSync := now.Add(-time.Duration(30+rng.Intn(48)) * time.Hour)
		snap.Sources[0].LastSyncAt = staleSync
		snap.LastSampleAt = &staleSync
	case "force-quit":
		snap.ForceQuit = true
		snap.BackgroundSyncEnabled = false
	case "rate-limited":
		snap.RateLimited = true
	case "outage":
		snap.ServiceHealthy = false
	case "conflict":
		second := differentSource(primary, rng)
		snap.Sources = append(snap.Sources, collect.Source{
			Name:       second,
			Type:       "app",
			LastSyncAt: now.Add(-time.Duration(10+rng.Intn(50)) * time.Minute),
		})
		// Far enough apart to trip the divergence check.
		snap.DailyStepsBySource[second] = steps/2 + rng.Intn(steps/4)
	case "no-sources":
		snap.Sources = nil
		snap.DailyStepsBySource = nil
	case "never-synced":
		snap.Sources = []collect.Source{{Name: primary, Type: "wearable"}}
		snap.LastSampleAt = nil
		snap.DailyStepsBySource = nil
	}

	// A few snapshots carry a device identifier to mimic real uploads.
	// Profiles about missing sources stay source-free.
	if rng.Intn(4) == 0 && profile != "no-sources" && profile != "never-synced" {
		snap.Sources = append(snap.Sources, collect.Source{
			Name:       "phone-" + uuid.New().String()[:8],
			Type:       "platform",
			LastSyncAt: now.Add(-time.Duration(rng.Intn(30)) * time.Minute),
		})
	}

	return snap
}

// differentSource picks a source name distinct from the given one.
func differentSource(name string, rng *rand.Rand) string {
	for {
		candidate := sourceNames[rng.Intn(len(sourceNames))]
		if candidate != name {
			return candidate
		}
	}
}
