// Package mcp exposes the diagnostician to AI assistants through the Model
// Context Protocol. Tools run against the in-process service, so a chat
// collaborator can trigger diagnoses and read back reports without going
// through the HTTP API.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stridelabs/sleuth/internal/service"
)

// Tool defines the interface for our tool implementations
type Tool interface {
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// SleuthServer wraps the mcp-go server with sleuth-specific tools
type SleuthServer struct {
	mcpServer     *server.MCPServer
	diagnostician *service.Diagnostician
	tools         map[string]Tool
	version       string
}

// NewSleuthServer creates a new sleuth MCP server bound to an in-process
// diagnostician.
func NewSleuthServer(diagnostician *service.Diagnostician, version string) (*SleuthServer, error) {
	if diagnostician == nil {
		return nil, fmt.Errorf("diagnostician is required")
	}

	// Create mcp-go server with capabilities
	mcpServer := server.NewMCPServer(
		"Sleuth MCP Server",
		version,
		server.WithToolCapabilities(false), // No tool subscription for now
		server.WithLogging(),               // Enable logging capability
	)

	s := &SleuthServer{
		mcpServer:     mcpServer,
		diagnostician: diagnostician,
		tools:         make(map[string]Tool),
		version:       version,
	}

	// Register tools
	s.registerTools()

	// Register prompts
	s.registerPrompts()

	return s, nil
}

func (s *SleuthServer) registerTools() {
	// Register diagnose_tracking tool
	s.registerTool(
		"diagnose_tracking",
		"Diagnose why a user's activity tracking pipeline is not working. Takes a raw device snapshot and returns a ranked, explained diagnostic report.",
		NewDiagnoseTool(s.diagnostician),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the user whose pipeline is diagnosed",
				},
				"snapshot": map[string]interface{}{
					"type":        "object",
					"description": "Raw device snapshot captured by the app: platform, permission and power state, connected sources, sample recency",
				},
				"reference_time": map[string]interface{}{
					"type":        "string",
					"description": "Optional: replay the diagnosis as of this moment (Unix seconds, 'now-2h', or a human-readable date)",
				},
			},
			"required": []string{"user_id", "snapshot"},
		},
	)

	// Register get_last_report tool
	s.registerTool(
		"get_last_report",
		"Get the most recent diagnostic report cached for a user",
		NewLastReportTool(s.diagnostician),
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the user whose last report is requested",
				},
			},
			"required": []string{"user_id"},
		},
	)

	// Register list_issue_kinds tool
	s.registerTool(
		"list_issue_kinds",
		"List every issue kind the engine can diagnose, with its fixed criticality, actionability and impact description",
		NewListKindsTool(),
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	)
}

func (s *SleuthServer) registerTool(name, description string, tool Tool, inputSchema map[string]interface{}) {
	// Store tool reference
	s.tools[name] = tool

	// Marshal schema to JSON
	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		// This should never happen with well-formed schemas
		panic(fmt.Sprintf("Failed to marshal schema for tool %s: %v", name, err))
	}

	// Create mcp.Tool definition with raw schema
	mcpTool := mcp.NewToolWithRawSchema(name, description, schemaJSON)

	// Register with mcp-go server using adapter
	s.mcpServer.AddTool(mcpTool, s.createToolHandler(tool))
}

func (s *SleuthServer) createToolHandler(tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Marshal arguments to JSON for our existing tool interface
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		// Execute tool with our existing interface
		result, err := tool.Execute(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Tool execution failed: %v", err)), nil
		}

		// Format result as JSON text
		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
		}

		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func (s *SleuthServer) registerPrompts() {
	// Register tracking troubleshooting prompt
	troubleshootPrompt := mcp.Prompt{
		Name:        "troubleshoot_tracking",
		Description: "Walk a user through diagnosing a broken activity-tracking pipeline",
		Arguments: []mcp.PromptArgument{
			{Name: "user_id", Description: "Identifier of the affected user", Required: true},
			{Name: "symptoms", Description: "Optional brief description of what the user observed", Required: false},
		},
	}

	s.mcpServer.AddPrompt(troubleshootPrompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		// Get arguments (mcp-go provides them as map[string]string)
		userID := request.Params.Arguments["user_id"]
		symptoms := request.Params.Arguments["symptoms"]

		// Build prompt message
		text := fmt.Sprintf("Figure out why activity tracking is not working for user %s. "+
			"Obtain a fresh device snapshot from the app, run the diagnose_tracking tool with it, "+
			"then explain the primary issue and its suggested fix in plain language. "+
			"Use list_issue_kinds if you need background on an issue kind.", userID)
		if symptoms != "" {
			text += fmt.Sprintf(" Reported symptoms: %s", symptoms)
		}

		// Build prompt messages
		messages := []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		}

		return &mcp.GetPromptResult{
			Description: "Tracking pipeline troubleshooting workflow",
			Messages:    messages,
		}, nil
	})
}

// GetMCPServer returns the underlying mcp-go server for transport setup
func (s *SleuthServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
