package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/hpungsan/curate/internal/config"
)

const testDocument = `# Awesome Raycast

<!-- START UPDATETIME -->
![Last update](/icons/tok_update-time.svg)
<!-- END UPDATETIME -->

## Categories

- **[Clipboard](https://raycast.com/alice/clipboard)** - Paste <history> ` + "`api@1.60.0`" + `
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// setupTest lays out generated artifacts in a temp dir and returns the routed handler.
func setupTest(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.ReadmePath = filepath.Join(dir, "README.md")
	cfg.DataPath = filepath.Join(dir, "data", "data.json")
	cfg.APIVersionsPath = filepath.Join(dir, "data", "api-versions.json")
	cfg.IconsDir = filepath.Join(dir, "icons")

	writeFile(t, cfg.ReadmePath, testDocument)
	writeFile(t, cfg.DataPath, `[{"name":"clipboard"}]`)
	writeFile(t, cfg.APIVersionsPath, `[{"version":"1.60.0","packages":["clipboard"]}]`)
	writeFile(t, filepath.Join(cfg.IconsDir, "tok_update-time.svg"), `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		t.Fatalf("static sub-FS: %v", err)
	}

	logger := log.New(os.Stderr)
	logger.SetLevel(log.ErrorLevel)
	h := &Handlers{
		cfg:      cfg,
		logger:   logger,
		renderer: NewRenderer(templateSub, "test", logger),
	}
	return h.routes(staticSub), cfg
}

func get(t *testing.T, handler http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- HandleDocument ---

func TestHandleDocument(t *testing.T) {
	handler, _ := setupTest(t)

	rec := get(t, handler, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`<h1 id="awesome-raycast">Awesome Raycast</h1>`,
		`<img src="/icons/tok_update-time.svg" alt="Last update">`,
		`<a href="https://raycast.com/alice/clipboard">Clipboard</a>`,
		`<code>api@1.60.0</code>`,
		`<title>README.md · curate</title>`,
		"curate test",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHandleDocument_Missing(t *testing.T) {
	handler, cfg := setupTest(t)
	if err := os.Remove(cfg.ReadmePath); err != nil {
		t.Fatal(err)
	}

	rec := get(t, handler, "/", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "file not found") {
		t.Errorf("error page missing message: %s", rec.Body.String())
	}
}

func TestHandleDocument_MissingJSON(t *testing.T) {
	handler, cfg := setupTest(t)
	if err := os.Remove(cfg.ReadmePath); err != nil {
		t.Fatal(err)
	}

	rec := get(t, handler, "/", map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var payload map[string]map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"]["code"] != "NOT_FOUND" {
		t.Errorf("code = %v, want NOT_FOUND", payload["error"]["code"])
	}
}

func TestHandleDocument_PicksUpRegeneration(t *testing.T) {
	handler, cfg := setupTest(t)

	writeFile(t, cfg.ReadmePath, "# Second\n")
	rec := get(t, handler, "/", nil)
	if !strings.Contains(rec.Body.String(), "Second") {
		t.Error("expected rewritten document to be served")
	}
}

// --- JSON artifacts ---

func TestHandleData(t *testing.T) {
	handler, _ := setupTest(t)

	tests := []struct {
		path string
		want string
	}{
		{"/data.json", `[{"name":"clipboard"}]`},
		{"/api-versions.json", `[{"version":"1.60.0","packages":["clipboard"]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, handler, tt.path, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestHandleData_Missing(t *testing.T) {
	handler, cfg := setupTest(t)
	if err := os.Remove(cfg.DataPath); err != nil {
		t.Fatal(err)
	}

	if rec := get(t, handler, "/data.json", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- static routes ---

func TestIconsAndStatic(t *testing.T) {
	handler, _ := setupTest(t)

	rec := get(t, handler, "/icons/tok_update-time.svg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("icon status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("icon body = %q", rec.Body.String())
	}

	if rec := get(t, handler, "/icons/missing.svg", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing icon status = %d, want 404", rec.Code)
	}

	if rec := get(t, handler, "/static/style.css", nil); rec.Code != http.StatusOK {
		t.Errorf("stylesheet status = %d, want 200", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	handler, _ := setupTest(t)
	if rec := get(t, handler, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := setupTest(t)

	req := httptest.NewRequest(http.MethodPost, "/data.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler, _ := setupTest(t)

	rec := get(t, handler, "/", nil)
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("missing Content-Security-Policy")
	}
}

func TestNewServer(t *testing.T) {
	srv, err := NewServer(config.DefaultConfig(), nil, "test", "127.0.0.1", 8080)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if srv.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", srv.Addr)
	}
}
