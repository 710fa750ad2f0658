package tui

import (
	"log"
	"os"
	"path/filepath"

	"github.com/apastor/mailterm/internal/config"
)

// initLogger initializes a file logger. The path comes from config, or
// ~/.config/mailterm/mailterm.log when unset.
func (a *App) initLogger() {
	if a.logger != nil && a.logFile != nil {
		return
	}

	path := a.Config.LogFile
	if path == "" {
		dir := config.DefaultLogDir()
		if dir == "" {
			return
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return
		}
		path = filepath.Join(dir, "mailterm.log")
	}

	if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		a.logFile = f
		a.logger = log.New(f, "[mailterm] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// closeLogger closes the log file if opened
func (a *App) closeLogger() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// Logger exposes the app logger for wiring into services.
func (a *App) Logger() *log.Logger {
	return a.logger
}
