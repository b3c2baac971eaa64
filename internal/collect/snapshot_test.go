package collect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr string
	}{
		{
			name:   "valid android",
			mutate: func(s *Snapshot) {},
		},
		{
			name:   "valid ios",
			mutate: func(s *Snapshot) { s.Platform = "iOS" },
		},
		{
			name:    "unknown platform",
			mutate:  func(s *Snapshot) { s.Platform = "windows-phone" },
			wantErr: "platform",
		},
		{
			name:    "empty platform",
			mutate:  func(s *Snapshot) { s.Platform = "" },
			wantErr: "platform",
		},
		{
			name:    "missing captured_at",
			mutate:  func(s *Snapshot) { s.CapturedAt = time.Time{} },
			wantErr: "captured_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			tt.mutate(&snap)

			err := ValidateSnapshot(snap)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCheckAppVersion(t *testing.T) {
	tests := []struct {
		name       string
		appVersion string
		minVersion string
		wantErr    string
	}{
		{name: "no gate configured", appVersion: "0.0.1"},
		{name: "equal to minimum", appVersion: "2.0.0", minVersion: "2.0.0"},
		{name: "above minimum", appVersion: "2.1.3", minVersion: "2.0.0"},
		{name: "prerelease above minimum", appVersion: "2.1.0-beta.1", minVersion: "2.0.0"},
		{
			name:       "below minimum",
			appVersion: "1.9.9",
			minVersion: "2.0.0",
			wantErr:    "below minimum",
		},
		{
			name:       "missing app version with gate",
			appVersion: "",
			minVersion: "2.0.0",
			wantErr:    "app_version is required",
		},
		{
			name:       "garbage app version",
			appVersion: "lots-of-features",
			minVersion: "2.0.0",
			wantErr:    "not a valid version",
		},
		{
			name:       "garbage minimum",
			appVersion: "2.0.0",
			minVersion: "not.a.version.at.all.x",
			wantErr:    "invalid minimum app version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			snap.AppVersion = tt.appVersion

			err := CheckAppVersion(snap, tt.minVersion)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
