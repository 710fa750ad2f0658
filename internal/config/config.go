package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ListConfig tunes paging and the client-side filter search. The search
// bounds mirror the list service defaults; zero values fall back there.
type ListConfig struct {
	PageSize        int `json:"page_size"`
	SearchBatchSize int `json:"search_batch_size"`
	MaxSearch       int `json:"max_search"`
}

// Config holds all configuration for the mail terminal application
type Config struct {
	Credentials string `json:"credentials"`
	Token       string `json:"token"`

	// List paging and filter search bounds
	List ListConfig `json:"list"`

	// Keyboard shortcuts
	Keys KeyBindings `json:"keys"`

	// Layout configuration
	Layout LayoutConfig `json:"layout"`

	// External editor for composing drafts (falls back to $EDITOR)
	Editor string `json:"editor"`

	// Body cache database path (empty = default under the config dir)
	CachePath string `json:"cache_path"`

	// Remote call timeout, e.g. "30s"
	Timeout string `json:"timeout"`

	// Logging
	LogFile string `json:"log_file"`
}

// LayoutConfig defines layout-specific configuration
type LayoutConfig struct {
	ShowBorders    bool   `json:"show_borders"`
	ShowTitles     bool   `json:"show_titles"`
	CurrentTheme   string `json:"current_theme"`    // Active theme name (e.g., "mailterm-dark")
	CustomThemeDir string `json:"custom_theme_dir"` // Custom themes directory (empty = default)
}

// KeyBindings defines keyboard shortcuts for the TUI
type KeyBindings struct {
	// Core message operations
	Compose    string `json:"compose"`
	Reply      string `json:"reply"`
	Refresh    string `json:"refresh"`
	ToggleRead string `json:"toggle_read"`
	Delete     string `json:"delete"`
	Move       string `json:"move"`
	Restore    string `json:"restore"`
	Quit       string `json:"quit"`

	// List navigation
	LoadMore    string `json:"load_more"`
	Filter      string `json:"filter"`
	ClearFilter string `json:"clear_filter"`

	// Folder switching
	Inbox   string `json:"inbox"`
	Drafts  string `json:"drafts"`
	Sent    string `json:"sent"`
	Deleted string `json:"deleted"`
	Junk    string `json:"junk"`

	CommandMode string `json:"command_mode"` // Open command bar
	Help        string `json:"help"`         // Toggle help
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		List:    DefaultListConfig(),
		Keys:    DefaultKeyBindings(),
		Layout:  DefaultLayoutConfig(),
		Timeout: "30s",
		LogFile: "",
	}
}

// DefaultListConfig returns default paging configuration
func DefaultListConfig() ListConfig {
	return ListConfig{
		PageSize:        25,
		SearchBatchSize: 50,
		MaxSearch:       200,
	}
}

// DefaultKeyBindings returns default keyboard shortcuts
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Compose:    "c",
		Reply:      "r",
		Refresh:    "R",
		ToggleRead: "t",
		Delete:     "d",
		Move:       "m",
		Restore:    "u",
		Quit:       "q",

		LoadMore:    "N",
		Filter:      "/",
		ClearFilter: "\\",

		Inbox:   "1",
		Drafts:  "2",
		Sent:    "3",
		Deleted: "4",
		Junk:    "5",

		CommandMode: ":",
		Help:        "?",
	}
}

// DefaultLayoutConfig returns default layout configuration
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		ShowBorders:    true,
		ShowTitles:     true,
		CurrentTheme:   "mailterm-dark",
		CustomThemeDir: "",
	}
}

// LoadConfig loads configuration from file, then applies MAILTERM_*
// environment overrides on top.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from the environment. Only the fields that
// make sense to vary per shell are covered.
func (c *Config) applyEnv() {
	if v := os.Getenv("MAILTERM_CREDENTIALS"); v != "" {
		c.Credentials = v
	}
	if v := os.Getenv("MAILTERM_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("MAILTERM_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("MAILTERM_EDITOR"); v != "" {
		c.Editor = v
	}
	if v := os.Getenv("MAILTERM_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.List.PageSize = n
		}
	}
	if v := os.Getenv("MAILTERM_MAX_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.List.MaxSearch = n
		}
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailterm", "config.json")
}

// DefaultCredentialPaths returns the default paths for credentials and token
func DefaultCredentialPaths() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}

	configDir := filepath.Join(home, ".config", "mailterm")
	credentialsPath := filepath.Join(configDir, "credentials.json")
	tokenPath := filepath.Join(configDir, "token.json")

	return credentialsPath, tokenPath
}

// DefaultCachePath returns the default body cache database path
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailterm", "cache", "bodies.db")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mailterm")
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetTimeout returns the parsed remote call timeout
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			return d
		}
	}
	return 30 * time.Second
}
