package tui

import (
	"fmt"
	"time"

	"github.com/derailed/tview"
)

// showStatusMessage displays a transient message in the status bar
func (a *App) showStatusMessage(msg string) {
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetText(fmt.Sprintf("mailterm | %s | Press ? for help | Press %s to quit", msg, a.Keys.Quit))
		go func() {
			time.Sleep(4 * time.Second)
			a.QueueUpdateDraw(func() {
				if status, ok := a.views["status"].(*tview.TextView); ok {
					status.SetText(fmt.Sprintf("mailterm | Press ? for help | Press %s to quit", a.Keys.Quit))
				}
			})
		}()
	}
}

// setStatusPersistent sets the status bar text without auto-clearing
func (a *App) setStatusPersistent(msg string) {
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetText(fmt.Sprintf("mailterm | %s | Press ? for help | Press %s to quit", msg, a.Keys.Quit))
	}
}

// showError shows an error message via status helpers
func (a *App) showError(msg string) {
	a.showStatusMessage(fmt.Sprintf("⚠️ %s", msg))
	if a.logger != nil {
		a.logger.Printf("error: %s", msg)
	}
}

// showInfo shows an info message via status helpers
func (a *App) showInfo(msg string) {
	a.showStatusMessage(msg)
}

// showSearchOutcome reports how a filtered load ended: whether the
// folder was drained or the scan stopped at its ceiling with more
// messages left to search.
func (a *App) showSearchOutcome() {
	if a.listService.FilterText() == "" {
		return
	}

	stats := a.listService.LastSearch()
	switch {
	case stats.CeilingHit:
		a.setStatusPersistent(fmt.Sprintf(
			"%d match(es) in the first %d messages, press %s to search further",
			stats.Matched, stats.Scanned, a.Keys.LoadMore))
	case stats.Exhausted:
		a.setStatusPersistent(fmt.Sprintf(
			"%d match(es), searched all %d messages",
			stats.Matched, stats.Scanned))
	default:
		a.setStatusPersistent(fmt.Sprintf(
			"%d match(es) in %d messages scanned",
			stats.Matched, stats.Scanned))
	}
}
