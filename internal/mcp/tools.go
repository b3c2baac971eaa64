package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/issue"
	"github.com/stridelabs/sleuth/internal/service"
)

// DiagnoseTool runs a full diagnosis for a posted device snapshot.
type DiagnoseTool struct {
	diagnostician *service.Diagnostician
}

// NewDiagnoseTool creates a new diagnose tool
func NewDiagnoseTool(diagnostician *service.Diagnostician) *DiagnoseTool {
	return &DiagnoseTool{diagnostician: diagnostician}
}

type diagnoseInput struct {
	UserID        string           `json:"user_id"`
	ReferenceTime string           `json:"reference_time,omitempty"`
	Snapshot      collect.Snapshot `json:"snapshot"`
}

// Execute implements the Tool interface
func (t *DiagnoseTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args diagnoseInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	at, err := collect.ParseOptionalReferenceTime(args.ReferenceTime)
	if err != nil {
		return nil, err
	}

	return t.diagnostician.Diagnose(ctx, args.UserID, args.Snapshot, at)
}

// LastReportTool returns the most recent cached report for a user.
type LastReportTool struct {
	diagnostician *service.Diagnostician
}

// NewLastReportTool creates a new last-report tool
func NewLastReportTool(diagnostician *service.Diagnostician) *LastReportTool {
	return &LastReportTool{diagnostician: diagnostician}
}

type lastReportInput struct {
	UserID string `json:"user_id"`
}

// Execute implements the Tool interface
func (t *LastReportTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args lastReportInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	report, ok := t.diagnostician.LastReport(args.UserID)
	if !ok {
		return nil, fmt.Errorf("no report found for user %q", args.UserID)
	}
	return report, nil
}

// ListKindsTool lists the closed catalog of diagnosable issue kinds.
type ListKindsTool struct{}

// NewListKindsTool creates a new kind catalog tool
func NewListKindsTool() *ListKindsTool {
	return &ListKindsTool{}
}

// KindInfo describes one issue kind in the tool result
type KindInfo struct {
	Kind          issue.Kind `json:"kind"`
	Title         string     `json:"title"`
	Criticality   float64    `json:"criticality"`
	Actionability float64    `json:"actionability"`
	Impact        string     `json:"impact"`
	SuggestedFix  string     `json:"suggested_fix"`
}

// Execute implements the Tool interface
func (t *ListKindsTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	kinds := issue.AllKinds()
	entries := make([]KindInfo, 0, len(kinds))
	for _, k := range kinds {
		entries = append(entries, KindInfo{
			Kind:          k,
			Title:         issue.Title(k),
			Criticality:   issue.Criticality(k),
			Actionability: issue.Actionability(k),
			Impact:        issue.Impact(k),
			SuggestedFix:  issue.SuggestedFix(k),
		})
	}

	return map[string]interface{}{
		"kinds": entries,
		"count": len(entries),
	}, nil
}
