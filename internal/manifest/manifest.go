// Package manifest reads package manifests from the corpus and normalizes them
// into the record shape the aggregation pipeline consumes.
package manifest

import (
	"encoding/json"
	"slices"
)

// FileName is the manifest file each package directory carries.
const FileName = "package.json"

// Dependency keys lifted into first-class attributes.
const (
	APIDependency   = "@raycast/api"
	UtilsDependency = "@raycast/utils"
)

// Platform is a supported operating system tag.
type Platform string

const (
	PlatformMacOS   Platform = "macOS"
	PlatformWindows Platform = "Windows"
)

// CommandMode is how a command presents itself.
type CommandMode string

const (
	ModeView    CommandMode = "view"
	ModeNoView  CommandMode = "no-view"
	ModeMenuBar CommandMode = "menu-bar"
)

// CommandModes lists the known modes in display order.
var CommandModes = []CommandMode{ModeView, ModeNoView, ModeMenuBar}

// Known reports whether m is one of the fixed command modes.
func (m CommandMode) Known() bool {
	return slices.Contains(CommandModes, m)
}

// Tool is a named AI tool descriptor.
type Tool struct {
	Name string `json:"name"`
}

// Command is a named command descriptor.
type Command struct {
	Name  string      `json:"name"`
	Title string      `json:"title,omitempty"`
	Mode  CommandMode `json:"mode"`
}

// Raw is one corpus entry exactly as decoded from its manifest file.
// Nil slices mean the field was absent; this matters for Platforms.
type Raw struct {
	Name            string            `json:"name"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Author          string            `json:"author"`
	Contributors    []string          `json:"contributors,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Categories      []string          `json:"categories,omitempty"`
	AI              json.RawMessage   `json:"ai,omitempty"`
	Tools           []Tool            `json:"tools,omitempty"`
	Commands        []Command         `json:"commands,omitempty"`
	Platforms       []Platform        `json:"platforms,omitempty"`
}

// HasAI reports whether the AI configuration blob is a non-empty object.
func (r Raw) HasAI() bool {
	if len(r.AI) == 0 {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(r.AI, &obj); err != nil {
		return false
	}
	return len(obj) > 0
}

// Normalized is a Raw manifest plus the attributes derived during normalization.
// Its Categories holds at most one element.
type Normalized struct {
	Raw

	// Path is the package directory relative to the corpus root, starting with "/".
	Path string

	// Dir is the package directory name (Path without the leading slash).
	Dir string

	// Category is the single primary category, empty when the manifest had none.
	Category string

	// APIVersion and UtilsVersion are the extracted dependency ranges; nil when absent.
	APIVersion   *string
	UtilsVersion *string

	// Swift is set when the package directory carries Swift sources.
	Swift bool

	// Updated is the latest changelog date (yyyy-mm-dd), empty when unknown.
	Updated string
}

// HasTools reports whether the manifest declares at least one tool.
func (n Normalized) HasTools() bool {
	return len(n.Tools) > 0
}

// PlatformsDeclared reports whether the manifest lists platforms at all.
func (n Normalized) PlatformsDeclared() bool {
	return n.Platforms != nil
}

// SupportsWindows reports Windows support. Undeclared platforms mean macOS only.
func (n Normalized) SupportsWindows() bool {
	return slices.Contains(n.Platforms, PlatformWindows)
}

// SupportsMac reports macOS support. Undeclared platforms mean macOS only.
func (n Normalized) SupportsMac() bool {
	if !n.PlatformsDeclared() {
		return true
	}
	return slices.Contains(n.Platforms, PlatformMacOS)
}
