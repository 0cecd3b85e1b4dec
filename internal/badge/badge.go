// Package badge renders flat status badges as SVG and regenerates the badge directory.
package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gobadge "github.com/narqo/go-badge"
)

// KeepFile is left in the badge directory after it is emptied.
const KeepFile = ".gitkeep"

// Named colors accepted by Render.
var colors = map[string]gobadge.Color{
	"brightgreen": gobadge.Color("#4c1"),
	"green":       gobadge.Color("#97ca00"),
	"yellow":      gobadge.Color("#dfb317"),
	"orange":      gobadge.Color("#fe7d37"),
	"red":         gobadge.Color("#e05d44"),
	"blue":        gobadge.Color("#007ec6"),
	"lightgrey":   gobadge.Color("#9f9f9f"),
}

// Badge is one label/message/color triple and the file it is written to.
type Badge struct {
	FileName string
	Label    string
	Message  string
	Color    string
}

// Render returns the flat-style SVG document for b.
func Render(b Badge) ([]byte, error) {
	if b.Label == "" && b.Message == "" {
		return nil, fmt.Errorf("badge %q: label and message are empty", b.FileName)
	}
	color, ok := colors[b.Color]
	if !ok {
		if !strings.HasPrefix(b.Color, "#") {
			return nil, fmt.Errorf("badge %q: unknown color %q", b.FileName, b.Color)
		}
		color = gobadge.Color(b.Color)
	}

	data, err := gobadge.RenderBytes(b.Label, b.Message, color)
	if err != nil {
		return nil, fmt.Errorf("render badge %q: %w", b.FileName, err)
	}
	return data, nil
}

// Reset empties dir, creating it if needed, and leaves only KeepFile.
func Reset(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create badge directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read badge directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return os.WriteFile(filepath.Join(dir, KeepFile), nil, 0644)
}

// Generate resets dir and writes every badge into it.
// It stops at the first failure and returns it.
func Generate(dir string, badges []Badge) error {
	if err := Reset(dir); err != nil {
		return err
	}
	for _, b := range badges {
		if strings.ContainsAny(b.FileName, `/\`) || b.FileName == "" {
			return fmt.Errorf("badge file name %q is not a plain file name", b.FileName)
		}
		data, err := Render(b)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, b.FileName), data, 0644); err != nil {
			return fmt.Errorf("write badge %s: %w", b.FileName, err)
		}
	}
	return nil
}
