// Package mcp exposes read-only incident and cluster tools over the Model
// Context Protocol. Tools query the in-process engine and store directly;
// nothing here mutates pipeline state.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/moolen/cascade/internal/engine"
	"github.com/moolen/cascade/internal/models"
	"github.com/moolen/cascade/internal/store"
)

// Tool defines the interface for tool implementations
type Tool interface {
	Execute(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// CascadeServer wraps the mcp-go server with the incident tooling
type CascadeServer struct {
	mcpServer *server.MCPServer
	store     *store.Store
	engine    *engine.Engine
	tools     map[string]Tool
	version   string
}

// NewCascadeServer creates the MCP server and registers all tools
func NewCascadeServer(st *store.Store, eng *engine.Engine, version string) *CascadeServer {
	mcpServer := server.NewMCPServer(
		"Cascade MCP Server",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s := &CascadeServer{
		mcpServer: mcpServer,
		store:     st,
		engine:    eng,
		tools:     make(map[string]Tool),
		version:   version,
	}
	s.registerTools()
	return s
}

func (s *CascadeServer) registerTools() {
	s.registerTool(
		"list_clusters",
		"List the clusters and noise points from the last published clustering run for a tenant",
		&listClustersTool{engine: s.engine},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tenant": map[string]interface{}{
					"type":        "string",
					"description": "Tenant to query (empty for the default tenant)",
				},
			},
		},
	)

	s.registerTool(
		"incident_detail",
		"Get a single incident with its correlated evidence events",
		&incidentDetailTool{store: s.store},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"incident_id": map[string]interface{}{
					"type":        "string",
					"description": "Incident identifier as returned by list/cluster tools",
				},
			},
			"required": []string{"incident_id"},
		},
	)

	s.registerTool(
		"recommend_resolution",
		"Get ordered remediation steps for an error type at a severity tier",
		&recommendResolutionTool{engine: s.engine},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"error_type": map[string]interface{}{
					"type":        "string",
					"description": "Error type or incident signature (e.g. oomkilled)",
				},
				"severity": map[string]interface{}{
					"type":        "string",
					"description": "Severity tier label (P0, P1, P2, P3)",
				},
			},
			"required": []string{"error_type"},
		},
	)
}

func (s *CascadeServer) registerTool(name, description string, tool Tool, inputSchema map[string]interface{}) {
	s.tools[name] = tool

	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal schema for tool %s: %v", name, err))
	}

	mcpTool := mcp.NewToolWithRawSchema(name, description, schemaJSON)
	s.mcpServer.AddTool(mcpTool, s.createToolHandler(tool))
}

func (s *CascadeServer) createToolHandler(tool Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Tool execution failed: %v", err)), nil
		}

		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

// GetMCPServer returns the underlying mcp-go server for transport setup
func (s *CascadeServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ExecuteTool runs a registered tool by name. Used by tests and embedding
// callers that bypass the MCP transport.
func (s *CascadeServer) ExecuteTool(ctx context.Context, name string, input json.RawMessage) (interface{}, error) {
	tool, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Execute(ctx, input)
}

type listClustersTool struct {
	engine *engine.Engine
}

type listClustersInput struct {
	Tenant string `json:"tenant"`
}

func (t *listClustersTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in listClustersInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}

	run, ok := t.engine.Published(in.Tenant)
	if !ok {
		return map[string]interface{}{
			"tenant":   in.Tenant,
			"clusters": []models.Cluster{},
			"noise":    []models.NoisePoint{},
			"message":  "no clustering run has been published for this tenant",
		}, nil
	}
	return run, nil
}

type incidentDetailTool struct {
	store *store.Store
}

type incidentDetailInput struct {
	IncidentID string `json:"incident_id"`
}

func (t *incidentDetailTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in incidentDetailInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if in.IncidentID == "" {
		return nil, fmt.Errorf("incident_id is required")
	}

	inc, ok := t.store.Get(in.IncidentID)
	if !ok {
		return nil, fmt.Errorf("no incident with id %s", in.IncidentID)
	}
	return inc, nil
}

type recommendResolutionTool struct {
	engine *engine.Engine
}

type recommendResolutionInput struct {
	ErrorType string `json:"error_type"`
	Severity  string `json:"severity"`
}

func (t *recommendResolutionTool) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in recommendResolutionInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if in.ErrorType == "" {
		return nil, fmt.Errorf("error_type is required")
	}

	return t.engine.Recommend(in.ErrorType, models.ParseTier(in.Severity)), nil
}
