package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewServer builds an MCP server exposing the same tools as Handler, for
// stdio transports.
func NewServer(t *Tools, version string) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer("podcastqa-mcp", version)

	server.AddTool(mcp.Tool{
		Name:        ToolSearch,
		Description: searchDescription,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: searchProperties(),
			Required:   []string{"query"},
		},
	}, t.callSearch)

	server.AddTool(mcp.Tool{
		Name:        ToolList,
		Description: listDescription,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, t.callList)

	return server
}

func (t *Tools) callSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args SearchArgs
	raw, err := json.Marshal(request.GetArguments())
	if err == nil {
		err = json.Unmarshal(raw, &args)
	}
	if err != nil {
		return mcp.NewToolResultError("invalid search arguments"), nil
	}

	text, err := t.Search(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (t *Tools) callList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := t.ListPodcasts(ctx)
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
