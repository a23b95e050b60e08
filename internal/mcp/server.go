package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/store"
)

// Server exposes rule editing and batch conversion as MCP tools
type Server struct {
	mcpServer *mcp.Server
	store     *store.Manager
	exporter  *batch.Exporter
}

// NewServer creates a new MCP server backed by the configuration store
func NewServer(manager *store.Manager, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "ddsbatch",
		Version: version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		store:     manager,
		exporter:  batch.NewExporter(manager),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_profiles",
		Description: "List rule profiles with their ordered suffix rules and default formats, and the active profile.",
	}, s.handleListProfiles)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_rule",
		Description: "Append a suffix rule (e.g. _N -> BC5_UNORM) to a profile. Suffixes are unique per profile, case-insensitively.",
	}, s.handleAddRule)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "remove_last_rule",
		Description: "Remove the most recently added rule of a profile.",
	}, s.handleRemoveLastRule)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_active_profile",
		Description: "Select the profile used by subsequent conversions.",
	}, s.handleSetActiveProfile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "resolve",
		Description: "Show which output format and texconv options each file name would get. The longest matching suffix wins.",
	}, s.handleResolve)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "plan",
		Description: "Preview a conversion of a folder without running texconv: formats, destinations, and which files are up to date or colliding.",
	}, s.handlePlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_batch",
		Description: "Convert exported textures to DDS with texconv, in parallel, writing to a DDS folder next to each source.",
	}, s.handleRunBatch)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_settings",
		Description: "Show converter path, concurrency, timeout and toggles.",
	}, s.handleGetSettings)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_toggle",
		Description: "Switch export_dds, overwrite_dds or show_log on or off.",
	}, s.handleSetToggle)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_formats",
		Description: "List the DXGI output formats accepted in rules.",
	}, s.handleListFormats)
}

// RunStdio runs the server using stdio transport
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// NewHTTPHandler creates an HTTP handler for SSE transport
func (s *Server) NewHTTPHandler() http.Handler {
	return mcp.NewSSEHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// NewStreamableHTTPHandler creates a streamable HTTP handler
func (s *Server) NewStreamableHTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// profileName returns the requested profile, or the active one when empty
func (s *Server) profileName(requested string) string {
	if requested != "" {
		return requested
	}
	rs, _ := s.store.Snapshot()
	return rs.ActiveProfile().Name
}
