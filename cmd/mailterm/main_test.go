package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigPath_Priority(t *testing.T) {
	// CLI flag takes precedence
	t.Setenv("MAILTERM_CONFIG", "/env/config.json")
	assert.Equal(t, "/custom/config.json", getConfigPath("/custom/config.json"))

	// Environment variable when no flag
	assert.Equal(t, "/env/config.json", getConfigPath(""))

	// Default when neither flag nor env
	t.Setenv("MAILTERM_CONFIG", "")
	assert.Contains(t, getConfigPath(""), "config.json")
}

func TestGetCredentialsPath_Priority(t *testing.T) {
	t.Setenv("MAILTERM_CREDENTIALS", "/env/creds.json")
	assert.Equal(t, "/custom/creds.json", getCredentialsPath("/custom/creds.json", "/config/creds.json"))
	assert.Equal(t, "/env/creds.json", getCredentialsPath("", "/config/creds.json"))

	t.Setenv("MAILTERM_CREDENTIALS", "")
	assert.Equal(t, "/config/creds.json", getCredentialsPath("", "/config/creds.json"))
	assert.Contains(t, getCredentialsPath("", ""), "credentials.json")
}

func TestGetTokenPath_Priority(t *testing.T) {
	t.Setenv("MAILTERM_TOKEN", "/env/token.json")
	assert.Equal(t, "/env/token.json", getTokenPath("/config/token.json"))

	t.Setenv("MAILTERM_TOKEN", "")
	assert.Equal(t, "/config/token.json", getTokenPath("/config/token.json"))
	assert.Contains(t, getTokenPath(""), "token.json")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	assert.Equal(t, "/absolute/path.json", expandPath("/absolute/path.json"))
	assert.Equal(t, "relative/path.json", expandPath("relative/path.json"))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, filepath.Join(home, "creds.json"), expandPath("~/creds.json"))
}
