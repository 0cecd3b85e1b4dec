package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvRepoPath        = "REPO_PATH"
	EnvCorpusDir       = "CURATE_CORPUS_DIR"
	EnvDatabasePath    = "CURATE_DATABASE"
	EnvLogLevel        = "CURATE_LOG_LEVEL"
	EnvReadConcurrency = "CURATE_READ_CONCURRENCY"
)

// Config holds application configuration.
type Config struct {
	// RepoPath is the checkout of the extensions repository.
	// The corpus is read from RepoPath/extensions unless CorpusDir is set.
	RepoPath string `json:"repo_path,omitempty"`

	// CorpusDir overrides the corpus location derived from RepoPath.
	CorpusDir string `json:"corpus_dir,omitempty"`

	// ReadmePath is the document whose marked regions are regenerated.
	ReadmePath string `json:"readme_path,omitempty"`

	// HistoryPath is the append-only history log. It must exist before the first run.
	HistoryPath string `json:"history_path,omitempty"`

	// DataPath receives the per-package data snapshot.
	DataPath string `json:"data_path,omitempty"`

	// APIVersionsPath receives the API-version histogram.
	APIVersionsPath string `json:"api_versions_path,omitempty"`

	// IconsDir holds generated badge images. It is emptied on every badge run.
	IconsDir string `json:"icons_dir,omitempty"`

	// DatabasePath enables the SQLite catalog mirror when non-empty.
	DatabasePath string `json:"database_path,omitempty"`

	// ReadConcurrency bounds concurrent manifest reads. 0 means use the default.
	ReadConcurrency int `json:"read_concurrency,omitempty"`

	// StoreURL is the base for package detail and author links.
	StoreURL string `json:"store_url,omitempty"`

	// RepoURL is the base for issue, pull request and source links.
	RepoURL string `json:"repo_url,omitempty"`

	// TopAnchor is the anchor (without '#') each section's back-to-top link targets.
	TopAnchor string `json:"top_anchor,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RepoPath:        "repo",
		ReadmePath:      "README.md",
		HistoryPath:     filepath.Join("data", "history.json"),
		DataPath:        filepath.Join("data", "data.json"),
		APIVersionsPath: filepath.Join("data", "api-versions.json"),
		IconsDir:        "icons",
		ReadConcurrency: 8,
		StoreURL:        "https://raycast.com",
		RepoURL:         "https://github.com/raycast/extensions",
		TopAnchor:       "awesome-raycast",
		LogLevel:        "info",
	}
}

// Corpus returns the corpus root directory.
func (c *Config) Corpus() string {
	if c.CorpusDir != "" {
		return c.CorpusDir
	}
	return filepath.Join(c.RepoPath, "extensions")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.curate.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.curate) and repo (.curate) directories.
// Repo config is found by walking upward from startDir to find the nearest .curate/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .curate/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".curate", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv loads envFile (if present) into the process environment and overlays
// the recognized variables onto cfg. Variables already set in the environment win
// over values in envFile. A missing envFile is not an error.
func ApplyEnv(cfg *Config, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	overlay := &Config{
		RepoPath:     strings.TrimSpace(os.Getenv(EnvRepoPath)),
		CorpusDir:    strings.TrimSpace(os.Getenv(EnvCorpusDir)),
		DatabasePath: strings.TrimSpace(os.Getenv(EnvDatabasePath)),
		LogLevel:     strings.TrimSpace(os.Getenv(EnvLogLevel)),
	}
	if raw := strings.TrimSpace(os.Getenv(EnvReadConcurrency)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errors.New(EnvReadConcurrency + " must be a non-negative integer")
		}
		overlay.ReadConcurrency = n
	}

	return Merge(cfg, overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		RepoPath:        pick(overlay.RepoPath, base.RepoPath),
		CorpusDir:       pick(overlay.CorpusDir, base.CorpusDir),
		ReadmePath:      pick(overlay.ReadmePath, base.ReadmePath),
		HistoryPath:     pick(overlay.HistoryPath, base.HistoryPath),
		DataPath:        pick(overlay.DataPath, base.DataPath),
		APIVersionsPath: pick(overlay.APIVersionsPath, base.APIVersionsPath),
		IconsDir:        pick(overlay.IconsDir, base.IconsDir),
		DatabasePath:    pick(overlay.DatabasePath, base.DatabasePath),
		StoreURL:        strings.TrimRight(pick(overlay.StoreURL, base.StoreURL), "/"),
		RepoURL:         strings.TrimRight(pick(overlay.RepoURL, base.RepoURL), "/"),
		TopAnchor:       strings.TrimPrefix(pick(overlay.TopAnchor, base.TopAnchor), "#"),
		LogLevel:        pick(overlay.LogLevel, base.LogLevel),
	}

	result.ReadConcurrency = overlay.ReadConcurrency
	if result.ReadConcurrency == 0 {
		result.ReadConcurrency = base.ReadConcurrency
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// pick returns overlay unless it is blank.
func pick(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
