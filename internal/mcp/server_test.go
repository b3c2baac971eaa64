package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/diagnosis"
	"github.com/stridelabs/sleuth/internal/issue"
	"github.com/stridelabs/sleuth/internal/service"
)

func newTestDiagnostician(t *testing.T) *service.Diagnostician {
	t.Helper()
	d, err := service.NewDiagnostician(collect.NewRunner(), service.Options{
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("failed to build diagnostician: %v", err)
	}
	return d
}

func testSnapshot() collect.Snapshot {
	now := time.Now().UTC()
	last := now.Add(-2 * time.Hour)
	return collect.Snapshot{
		Platform:              "android",
		AppVersion:            "2.5.0",
		PlatformDataAvailable: true,
		BackgroundSyncEnabled: true,
		Online:                true,
		ServiceHealthy:        true,
		Sources: []collect.Source{
			{Name: "pixel-watch", Type: "steps"},
		},
		LastSampleAt:       &last,
		DailyStepsBySource: map[string]int{"pixel-watch": 6200},
		CapturedAt:         now,
	}
}

func marshalInput(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal tool input: %v", err)
	}
	return raw
}

func TestNewSleuthServer(t *testing.T) {
	if _, err := NewSleuthServer(nil, "1.0.0-test"); err == nil {
		t.Error("expected error for nil diagnostician")
	}

	s, err := NewSleuthServer(newTestDiagnostician(t), "1.0.0-test")
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	if s.GetMCPServer() == nil {
		t.Error("expected a non-nil mcp-go server")
	}

	for _, name := range []string{"diagnose_tracking", "get_last_report", "list_issue_kinds"} {
		if _, ok := s.tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
	if len(s.tools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(s.tools))
	}
}

func TestDiagnoseTool_Execute(t *testing.T) {
	tests := []struct {
		name    string
		input   func(*testing.T) json.RawMessage
		wantErr string
		check   func(*testing.T, interface{})
	}{
		{
			name: "permission issue is diagnosed as primary",
			input: func(t *testing.T) json.RawMessage {
				// PermissionsGranted stays false in the test snapshot.
				return marshalInput(t, diagnoseInput{UserID: "user-1", Snapshot: testSnapshot()})
			},
			check: func(t *testing.T, result interface{}) {
				report, ok := result.(*diagnosis.Report)
				if !ok {
					t.Fatalf("expected *diagnosis.Report, got %T", result)
				}
				if report.UserID != "user-1" {
					t.Errorf("expected user_id=user-1, got %s", report.UserID)
				}
				if report.Primary == nil {
					t.Fatal("expected a primary issue")
				}
				if report.Primary.Kind != issue.KindPermissionsNotGranted {
					t.Errorf("expected primary %s, got %s", issue.KindPermissionsNotGranted, report.Primary.Kind)
				}
			},
		},
		{
			name: "missing user_id",
			input: func(t *testing.T) json.RawMessage {
				return marshalInput(t, diagnoseInput{Snapshot: testSnapshot()})
			},
			wantErr: "user_id",
		},
		{
			name: "unknown platform",
			input: func(t *testing.T) json.RawMessage {
				snap := testSnapshot()
				snap.Platform = "blackberry"
				return marshalInput(t, diagnoseInput{UserID: "user-1", Snapshot: snap})
			},
			wantErr: "platform",
		},
		{
			name: "invalid reference time",
			input: func(t *testing.T) json.RawMessage {
				return marshalInput(t, diagnoseInput{
					UserID:        "user-1",
					ReferenceTime: "sometime last never",
					Snapshot:      testSnapshot(),
				})
			},
			wantErr: "reference time",
		},
		{
			name: "malformed arguments",
			input: func(t *testing.T) json.RawMessage {
				return json.RawMessage(`{"user_id": 42}`)
			},
			wantErr: "invalid arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewDiagnoseTool(newTestDiagnostician(t))

			result, err := tool.Execute(context.Background(), tt.input(t))

			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("tool execution failed: %v", err)
			}
			tt.check(t, result)
		})
	}
}

func TestLastReportTool_Execute(t *testing.T) {
	diagnostician := newTestDiagnostician(t)
	diagnoseTool := NewDiagnoseTool(diagnostician)
	lastReportTool := NewLastReportTool(diagnostician)

	// No report cached yet.
	_, err := lastReportTool.Execute(context.Background(), json.RawMessage(`{"user_id": "user-1"}`))
	if err == nil || !strings.Contains(err.Error(), "no report found") {
		t.Fatalf("expected a no-report error, got %v", err)
	}

	// Empty user_id is rejected.
	_, err = lastReportTool.Execute(context.Background(), json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "user_id is required") {
		t.Fatalf("expected a user_id error, got %v", err)
	}

	// Diagnose once, then fetch the cached report.
	seeded, err := diagnoseTool.Execute(context.Background(), marshalInput(t, diagnoseInput{
		UserID:   "user-1",
		Snapshot: testSnapshot(),
	}))
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	result, err := lastReportTool.Execute(context.Background(), json.RawMessage(`{"user_id": "user-1"}`))
	if err != nil {
		t.Fatalf("last report lookup failed: %v", err)
	}

	cached, ok := result.(*diagnosis.Report)
	if !ok {
		t.Fatalf("expected *diagnosis.Report, got %T", result)
	}
	if cached.ID != seeded.(*diagnosis.Report).ID {
		t.Errorf("expected cached report %s, got %s", seeded.(*diagnosis.Report).ID, cached.ID)
	}
}

func TestListKindsTool_Execute(t *testing.T) {
	tool := NewListKindsTool()

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("tool execution failed: %v", err)
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}

	count, ok := resultMap["count"].(int)
	if !ok || count != len(issue.AllKinds()) {
		t.Errorf("expected count=%d, got %v", len(issue.AllKinds()), resultMap["count"])
	}

	entries, ok := resultMap["kinds"].([]KindInfo)
	if !ok {
		t.Fatalf("expected []KindInfo, got %T", resultMap["kinds"])
	}
	for _, entry := range entries {
		if entry.Title == "" {
			t.Errorf("kind %s has no title", entry.Kind)
		}
		if entry.SuggestedFix == "" {
			t.Errorf("kind %s has no suggested fix", entry.Kind)
		}
	}
}
