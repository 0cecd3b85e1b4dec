package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
	"github.com/hpungsan/curate/internal/errors"
)

// Handlers contains HTTP route handlers for the preview.
type Handlers struct {
	cfg      *config.Config
	logger   *log.Logger
	renderer *Renderer
}

// HandleDocument handles GET / by rendering the current document.
// The file is read on every request so regenerations show up without a restart.
func (h *Handlers) HandleDocument(w http.ResponseWriter, r *http.Request) {
	md, err := readArtifact(h.cfg.ReadmePath)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, http.StatusOK, "document", DocumentPageData{
		PageData: PageData{
			Title:   filepath.Base(h.cfg.ReadmePath),
			Version: h.renderer.version,
		},
		Path:         h.cfg.ReadmePath,
		RenderedHTML: h.renderer.renderMarkdown(md),
	})
}

// HandleData handles GET /data.json by serving the data snapshot.
func (h *Handlers) HandleData(w http.ResponseWriter, r *http.Request) {
	h.serveJSONFile(w, r, h.cfg.DataPath)
}

// HandleAPIVersions handles GET /api-versions.json by serving the histogram file.
func (h *Handlers) HandleAPIVersions(w http.ResponseWriter, r *http.Request) {
	h.serveJSONFile(w, r, h.cfg.APIVersionsPath)
}

func (h *Handlers) serveJSONFile(w http.ResponseWriter, r *http.Request, path string) {
	data, err := readArtifact(path)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readArtifact reads a generated file, mapping a missing file to NOT_FOUND.
func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewFileNotFound(path)
	}
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read %s: %w", path, err))
	}
	return data, nil
}
