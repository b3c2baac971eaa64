package collect

import (
	"context"
	"fmt"

	"github.com/stridelabs/sleuth/internal/issue"
)

// PlatformCollector checks whether the OS health platform (Health Connect,
// HealthKit) is installed and reachable.
type PlatformCollector struct{}

func (c *PlatformCollector) Name() string { return "platform" }

func (c *PlatformCollector) Checks() []string {
	return []string{"health platform availability"}
}

func (c *PlatformCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	if snap.PlatformDataAvailable {
		return nil, nil
	}

	is := issue.New(issue.KindPlatformUnavailable, ConfidencePlatform)
	is.Detail = fmt.Sprintf("The %s health platform reported no data availability.", platformLabel(snap))
	return []issue.Issue{is}, nil
}

// platformLabel names the device's health data platform for detail text.
func platformLabel(snap Snapshot) string {
	switch issue.ParsePlatform(snap.Platform) {
	case issue.PlatformAndroid:
		return "Health Connect"
	case issue.PlatformIOS:
		return "HealthKit"
	default:
		return "device"
	}
}
