package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/catalog"
)

const Name = "project-graph"

// NewServer exposes the catalog as an MCP server whose handlers go through
// the bridge. Results are the bridge's advisory responses, as JSON text.
func NewServer(c catalog.Catalog, b *bridge.Bridge, version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(Name, version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
	)

	for _, tool := range c.Tools {
		mcpServer.AddTool(mcp.NewToolWithRawSchema(tool.Name, tool.Description, inputSchema(tool)), callTool(b))
	}

	for _, resource := range c.Resources {
		mcpServer.AddResource(mcp.NewResource(resource.URI, resource.Name,
			mcp.WithResourceDescription(resource.Description),
			mcp.WithMIMEType(resource.MIMEType),
		), readResource(b))
	}

	for _, prompt := range c.Prompts {
		mcpServer.AddPrompt(mcp.NewPrompt(prompt.Name,
			mcp.WithPromptDescription(prompt.Description),
		), getPrompt(b, prompt.Description))
	}

	return mcpServer
}

func inputSchema(tool catalog.Tool) json.RawMessage {
	if tool.InputSchema == nil {
		return json.RawMessage(`{"type":"object"}`)
	}

	buf, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return buf
}

func callTool(b *bridge.Bridge) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError("encoding arguments: " + err.Error()), nil
		}

		response, err := b.CallTool(ctx, request.Params.Name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := json.Marshal(response)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}

func readResource(b *bridge.Bridge) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		response, err := b.ReadResource(ctx, request.Params.URI)
		if err != nil {
			return nil, err
		}

		text, err := json.Marshal(response)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(text),
			},
		}, nil
	}
}

func getPrompt(b *bridge.Bridge, description string) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		if _, err := b.GetPrompt(ctx, request.Params.Name); err != nil {
			return nil, err
		}

		return mcp.NewGetPromptResult(description, []mcp.PromptMessage{}), nil
	}
}

// Facade serves MCP over streamable HTTP and follows catalog changes by
// rebuilding the underlying server. Sessions opened before a change must
// initialize again.
type Facade struct {
	bridge  *bridge.Bridge
	version string
	current atomic.Pointer[server.StreamableHTTPServer]
}

func NewFacade(registry *catalog.Registry, b *bridge.Bridge, version string) *Facade {
	f := &Facade{
		bridge:  b,
		version: version,
	}

	f.rebuild(registry.Catalog())
	registry.OnChange(f.rebuild)

	return f
}

func (f *Facade) rebuild(c catalog.Catalog) {
	f.current.Store(server.NewStreamableHTTPServer(NewServer(c, f.bridge, f.version)))
}

func (f *Facade) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.current.Load().ServeHTTP(w, r)
}
