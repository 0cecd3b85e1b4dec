package mcp

import (
	"context"
	"database/sql"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/curate/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"catalog_summary": {
		def:     summaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummary },
	},
	"catalog_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"catalog_package": {
		def:     packageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePackage },
	},
	"catalog_api_versions": {
		def:     apiVersionsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAPIVersions },
	},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server exposing the catalog mirror.
// Tools listed in cfg.DisabledTools are excluded from registration; unknown
// names are logged and ignored.
func NewServer(db *sql.DB, cfg *config.Config, logger *log.Logger, version string) *server.MCPServer {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := server.NewMCPServer(
		"curate",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db)

	for _, name := range ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn("Unknown tool in disabled_tools", "tool", name)
	}
	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, logger *log.Logger, version string) error {
	s := NewServer(db, cfg, logger, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
