package collect

import (
	"context"

	"github.com/stridelabs/sleuth/internal/issue"
)

// PermissionsCollector checks whether the app holds the tracking permission.
// Permission state is read directly from the OS, so this check carries the
// highest confidence of the set.
type PermissionsCollector struct{}

func (c *PermissionsCollector) Name() string { return "permissions" }

func (c *PermissionsCollector) Checks() []string {
	return []string{"tracking permission status"}
}

func (c *PermissionsCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	if snap.PermissionsGranted {
		return nil, nil
	}

	is := issue.New(issue.KindPermissionsNotGranted, ConfidencePermissions)
	is.Detail = "The app does not hold the activity tracking permission."
	return []issue.Issue{is}, nil
}
