package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReadConcurrency != DefaultConfig().ReadConcurrency {
		t.Fatalf("ReadConcurrency = %d, want %d", cfg.ReadConcurrency, DefaultConfig().ReadConcurrency)
	}
	if cfg.Corpus() != filepath.Join("repo", "extensions") {
		t.Fatalf("Corpus() = %q, want repo/extensions", cfg.Corpus())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"readme_path": "docs/README.md", "read_concurrency": 2}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ReadmePath != "docs/README.md" {
		t.Fatalf("ReadmePath = %q, want %q", cfg.ReadmePath, "docs/README.md")
	}
	if cfg.ReadConcurrency != 2 {
		t.Fatalf("ReadConcurrency = %d, want 2", cfg.ReadConcurrency)
	}
	// Untouched scalars keep their defaults.
	if cfg.HistoryPath != filepath.Join("data", "history.json") {
		t.Fatalf("HistoryPath = %q", cfg.HistoryPath)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestCorpus_ExplicitDirWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepoPath = "/src/extensions-repo"
	if cfg.Corpus() != filepath.Join("/src/extensions-repo", "extensions") {
		t.Errorf("Corpus() = %q", cfg.Corpus())
	}

	cfg.CorpusDir = "/elsewhere"
	if cfg.Corpus() != "/elsewhere" {
		t.Errorf("Corpus() = %q, want /elsewhere", cfg.Corpus())
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"icons_dir": "global-icons", "read_concurrency": 4, "disabled_tools": ["catalog_search"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	curateDir := filepath.Join(repoRoot, ".curate")
	if err := os.MkdirAll(curateDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"read_concurrency": 16, "disabled_tools": ["catalog_package"]}`
	if err := os.WriteFile(filepath.Join(curateDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.ReadConcurrency != 16 {
		t.Errorf("ReadConcurrency = %d, want 16 (repo override)", cfg.ReadConcurrency)
	}
	if cfg.IconsDir != "global-icons" {
		t.Errorf("IconsDir = %q, want global-icons (global survives)", cfg.IconsDir)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	want := DefaultConfig()
	if cfg.ReadmePath != want.ReadmePath || cfg.StoreURL != want.StoreURL || cfg.TopAnchor != want.TopAnchor {
		t.Errorf("LoadWithRepo() = %+v, want defaults", cfg)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	globalDir := t.TempDir()

	curateDir := filepath.Join(tmpDir, ".curate")
	if err := os.MkdirAll(curateDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(curateDir, "config.json"), []byte(`{"top_anchor": "#my-list"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Leading '#' is stripped so the renderer can add its own.
	if cfg.TopAnchor != "my-list" {
		t.Errorf("TopAnchor = %q, want my-list", cfg.TopAnchor)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	found := FindRepoConfig(t.TempDir())
	if found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{ReadmePath: "README.md", ReadConcurrency: 8, StoreURL: "https://example.com/"}
	overlay := &Config{ReadmePath: "OTHER.md"}

	result := Merge(base, overlay)

	if result.ReadmePath != "OTHER.md" {
		t.Errorf("ReadmePath = %q, want OTHER.md (overlay)", result.ReadmePath)
	}
	if result.ReadConcurrency != 8 {
		t.Errorf("ReadConcurrency = %d, want 8 (base, overlay is zero)", result.ReadConcurrency)
	}
	if result.StoreURL != "https://example.com" {
		t.Errorf("StoreURL = %q, want trailing slash trimmed", result.StoreURL)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"catalog_search", "catalog_package"}}
	overlay := &Config{DisabledTools: []string{"catalog_package", " catalog_summary "}}

	result := Merge(base, overlay)

	want := []string{"catalog_search", "catalog_package", "catalog_summary"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestApplyEnv_ProcessEnvironment(t *testing.T) {
	t.Setenv(EnvRepoPath, "/checkout")
	t.Setenv(EnvDatabasePath, "/tmp/catalog.db")
	t.Setenv(EnvReadConcurrency, "3")

	cfg, err := ApplyEnv(DefaultConfig(), "")
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Corpus() != filepath.Join("/checkout", "extensions") {
		t.Errorf("Corpus() = %q", cfg.Corpus())
	}
	if cfg.DatabasePath != "/tmp/catalog.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.ReadConcurrency != 3 {
		t.Errorf("ReadConcurrency = %d, want 3", cfg.ReadConcurrency)
	}
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	// Register cleanup for the variable godotenv will set.
	t.Setenv(EnvCorpusDir, "")
	os.Unsetenv(EnvCorpusDir)

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("CURATE_CORPUS_DIR=/from/dotenv\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := ApplyEnv(DefaultConfig(), envFile)
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Corpus() != "/from/dotenv" {
		t.Errorf("Corpus() = %q, want /from/dotenv", cfg.Corpus())
	}
}

func TestApplyEnv_MissingDotEnvIsFine(t *testing.T) {
	if _, err := ApplyEnv(DefaultConfig(), filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("ApplyEnv() error = %v, want nil for missing file", err)
	}
}

func TestApplyEnv_BadConcurrency(t *testing.T) {
	t.Setenv(EnvReadConcurrency, "many")

	if _, err := ApplyEnv(DefaultConfig(), ""); err == nil {
		t.Fatal("ApplyEnv() expected error for non-numeric concurrency")
	}
}
