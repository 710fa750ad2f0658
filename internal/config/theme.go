package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThemeLoader reads and writes YAML theme files from a directory.
type ThemeLoader struct {
	themesDir string
}

// NewThemeLoader creates a loader rooted at themesDir.
func NewThemeLoader(themesDir string) *ThemeLoader {
	return &ThemeLoader{themesDir: themesDir}
}

// themeFile is the on-disk envelope around a color configuration.
type themeFile struct {
	Mailterm *ColorsConfig `yaml:"mailterm"`
}

// LoadThemeFromFile loads a theme by name from the themes directory,
// falling back to treating filename as a direct path.
func (tl *ThemeLoader) LoadThemeFromFile(filename string) (*ColorsConfig, error) {
	path, ok := tl.resolve(filename)
	if !ok {
		return nil, fmt.Errorf("theme file not found: %s", filename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}
	var theme themeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	if theme.Mailterm == nil {
		return nil, fmt.Errorf("invalid theme file: missing mailterm section")
	}
	return theme.Mailterm, nil
}

func (tl *ThemeLoader) resolve(filename string) (string, bool) {
	if path := filepath.Join(tl.themesDir, filename); fileExists(path) {
		return path, true
	}
	if fileExists(filename) {
		return filename, true
	}
	return "", false
}

// ListAvailableThemes returns the YAML theme files in the directory.
func (tl *ThemeLoader) ListAvailableThemes() ([]string, error) {
	entries, err := os.ReadDir(tl.themesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory: %w", err)
	}

	var themes []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		themes = append(themes, entry.Name())
	}
	return themes, nil
}

// SaveThemeToFile writes a theme under the themes directory.
func (tl *ThemeLoader) SaveThemeToFile(theme *ColorsConfig, filename string) error {
	if err := os.MkdirAll(tl.themesDir, 0755); err != nil {
		return fmt.Errorf("failed to create themes directory: %w", err)
	}
	data, err := yaml.Marshal(themeFile{Mailterm: theme})
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tl.themesDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write theme file: %w", err)
	}
	return nil
}

// ValidateTheme checks that the colors the list view cannot render
// without are present.
func (tl *ThemeLoader) ValidateTheme(theme *ColorsConfig) error {
	if theme == nil {
		return fmt.Errorf("theme is nil")
	}

	required := []struct {
		name  string
		color Color
	}{
		{"Body.FgColor", theme.Body.FgColor},
		{"Body.BgColor", theme.Body.BgColor},
		{"Message.UnreadColor", theme.Message.UnreadColor},
		{"Message.ReadColor", theme.Message.ReadColor},
	}
	for _, req := range required {
		if req.color == "" {
			return fmt.Errorf("missing required color: %s", req.name)
		}
	}
	return nil
}

// CreateDefaultTheme writes the built-in theme unless one exists.
func (tl *ThemeLoader) CreateDefaultTheme() error {
	if fileExists(filepath.Join(tl.themesDir, "mailterm-dark.yaml")) {
		return nil
	}
	return tl.SaveThemeToFile(DefaultColors(), "mailterm-dark.yaml")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
