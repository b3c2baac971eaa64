package collect

import (
	"context"

	"github.com/stridelabs/sleuth/internal/issue"
)

// PowerCollector checks the power management state: OS battery optimization
// applied to the app, and device-wide low power mode. Battery optimization
// is reported with low initial confidence because its observable effect
// (missing samples) has many other causes; the diagnosis engine raises it
// when corroborating signals are present.
type PowerCollector struct{}

func (c *PowerCollector) Name() string { return "power" }

func (c *PowerCollector) Checks() []string {
	return []string{"battery optimization state", "low power mode"}
}

func (c *PowerCollector) Collect(ctx context.Context, snap Snapshot, params Params) ([]issue.Issue, error) {
	var out []issue.Issue

	if snap.BatteryOptimizationRestricted {
		is := issue.New(issue.KindBatteryOptimization, ConfidenceBattery)
		is.Detail = "The OS applies battery optimization to the app, which can suspend background tracking."
		out = append(out, is)
	}

	if snap.LowPowerMode {
		is := issue.New(issue.KindLowPowerMode, ConfidenceLowPower)
		is.Detail = "The device is in low power mode, which throttles background activity."
		out = append(out, is)
	}

	return out, nil
}
