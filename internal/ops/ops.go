// Package ops sequences the curate pipeline and the read-only catalog queries.
package ops

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Pagination limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// loggerOrDiscard returns l, or a logger that writes nowhere when l is nil.
func loggerOrDiscard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}

// cleanOptionalString trims s and returns "" for nil.
func cleanOptionalString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
