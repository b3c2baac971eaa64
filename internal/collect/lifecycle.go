package collect

import (
	"context"

	"github.com/stridelabs/sleuth/internal/issue"
)

// LifecycleCollector checks the app process lifecycle: background sync
// setting and, on iOS, whether the user force-quit the app. Android restarts
// swiped-away apps for scheduled work, so the force-quit signal is
// meaningless there and is only emitted for iOS snapshots.
type LifecycleCollector struct{}

func (c *LifecycleCollector) Name() string { return "lifecycle" }

func (c *LifecycleCollector) Checks() []string {
	return []string{"background sync setting", "app lifecycle state"}
}

func (c *LifecycleCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	var out []issue.Issue

	if !snap.BackgroundSyncEnabled {
		is := issue.New(issue.KindBackgroundSyncDisabled, ConfidenceBackgroundSync)
		is.Detail = "Background sync is turned off in the app settings."
		out = append(out, is)
	}

	if snap.ForceQuit && issue.ParsePlatform(snap.Platform) == issue.PlatformIOS {
		is := issue.New(issue.KindAppForceQuit, ConfidenceForceQuit)
		is.Detail = "The app appears to have been force-quit; iOS will not relaunch it for background delivery."
		out = append(out, is)
	}

	return out, nil
}
