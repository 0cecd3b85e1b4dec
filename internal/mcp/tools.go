package mcp

import "github.com/mark3labs/mcp-go/mcp"

var summaryToolDef = mcp.NewTool("catalog_summary",
	mcp.WithDescription("Summarize the catalog mirror: package, category, author and contributor counts, platform support and the time the mirror was generated."),
)

var searchToolDef = mcp.NewTool("catalog_search",
	mcp.WithDescription("Search mirrored packages by substring over name, title and description. Results are ordered by name and paginated."),
	mcp.WithString("query",
		mcp.Description("Case-insensitive substring matched against name, title and description"),
	),
	mcp.WithString("category",
		mcp.Description("Exact primary category, e.g. \"Developer Tools\""),
	),
	mcp.WithString("author",
		mcp.Description("Exact author handle"),
	),
	mcp.WithString("platform",
		mcp.Description("Only packages supporting this platform"),
		mcp.Enum("windows", "macos"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Results to skip for pagination"),
	),
)

var packageToolDef = mcp.NewTool("catalog_package",
	mcp.WithDescription("Fetch one mirrored package by name, including dependencies, contributors and the latest changelog date."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Package name as declared in its manifest"),
	),
)

var apiVersionsToolDef = mcp.NewTool("catalog_api_versions",
	mcp.WithDescription("List API versions in use, newest first, with the packages pinned to each."),
)
