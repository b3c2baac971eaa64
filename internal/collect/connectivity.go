package collect

import (
	"context"

	"github.com/stridelabs/sleuth/internal/issue"
)

// ConnectivityCollector checks the network path: device connectivity, API
// rate limiting, and upstream provider health as last reported to the app.
type ConnectivityCollector struct{}

func (c *ConnectivityCollector) Name() string { return "connectivity" }

func (c *ConnectivityCollector) Checks() []string {
	return []string{"network connectivity", "provider service health"}
}

func (c *ConnectivityCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	var out []issue.Issue

	if !snap.Online {
		is := issue.New(issue.KindDeviceOffline, ConfidenceOffline)
		is.Detail = "The device had no network connection when the snapshot was captured."
		out = append(out, is)
	}

	if snap.RateLimited {
		is := issue.New(issue.KindAPIRateLimited, ConfidenceRateLimited)
		is.Detail = "Recent sync requests were rejected with rate limit responses."
		out = append(out, is)
	}

	if !snap.ServiceHealthy {
		is := issue.New(issue.KindServiceUnavailable, ConfidenceServiceUnavail)
		is.Detail = "The tracking provider's service reported unhealthy on the last sync attempt."
		out = append(out, is)
	}

	return out, nil
}
