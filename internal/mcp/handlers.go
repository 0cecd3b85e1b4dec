package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/curate/internal/errors"
	"github.com/hpungsan/curate/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db *sql.DB
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{db: db}
}

// SearchRequest represents the arguments for catalog_search.
type SearchRequest struct {
	Query    *string `json:"query,omitempty"`
	Category *string `json:"category,omitempty"`
	Author   *string `json:"author,omitempty"`
	Platform *string `json:"platform,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// PackageRequest represents the arguments for catalog_package.
type PackageRequest struct {
	Name string `json:"name"`
}

// HandleSummary handles the catalog_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CatalogSummary(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSearch handles the catalog_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CatalogSearch(ctx, h.db, ops.CatalogSearchInput{
		Query:    input.Query,
		Category: input.Category,
		Author:   input.Author,
		Platform: input.Platform,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePackage handles the catalog_package tool call.
func (h *Handlers) HandlePackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CatalogPackage(ctx, h.db, ops.CatalogPackageInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAPIVersions handles the catalog_api_versions tool call.
func (h *Handlers) HandleAPIVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CatalogAPIVersions(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cErr, ok := errors.As(err); ok {
		message := cErr.Message
		if cErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		} else if err != error(cErr) {
			// Keep wrapper context such as "items[2]: ...".
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": message,
			"status":  cErr.Status,
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
