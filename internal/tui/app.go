package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/apastor/mailterm/internal/config"
	"github.com/apastor/mailterm/internal/editor"
	"github.com/apastor/mailterm/internal/mailbox"
	"github.com/apastor/mailterm/internal/services"
)

// App encapsulates the terminal UI and the mail services
type App struct {
	*tview.Application
	Config *config.Config
	Keys   config.KeyBindings

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	views  map[string]tview.Primitive

	// Services
	listService    services.ListService
	messageService services.MessageService
	client         *mailbox.Client
	draftEditor    *editor.Editor

	// Command bar state
	cmdMode         bool
	cmdHistory      []string
	cmdHistoryIndex int

	// Overrides the modal confirmation prompt when set
	confirmFn func(prompt string, onConfirm func())

	// Read view state
	readVisible bool
	readID      string

	// Theme cache
	currentTheme *config.ColorsConfig

	// Debug logging
	logger  *log.Logger
	logFile *os.File
}

// NewApp builds the application around already constructed services.
func NewApp(cfg *config.Config, client *mailbox.Client, list services.ListService, msgs services.MessageService) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Application:    tview.NewApplication(),
		Config:         cfg,
		Keys:           cfg.Keys,
		ctx:            ctx,
		cancel:         cancel,
		views:          make(map[string]tview.Primitive),
		listService:    list,
		messageService: msgs,
		client:         client,
		draftEditor:    editor.New(cfg.Editor),
	}
	a.initLogger()
	a.loadTheme()
	a.initViews()
	return a
}

// Run starts the UI loop. The initial folder load happens before the
// first draw so the list is never shown empty while data exists.
func (a *App) Run() error {
	defer a.closeLogger()
	defer a.cancel()

	if _, err := a.listService.LoadInitial(a.ctx); err != nil {
		if a.logger != nil {
			a.logger.Printf("initial load failed: %v", err)
		}
		// Keep going; the error lands in the status line so the user
		// can retry with a refresh.
		a.setStatusPersistent(fmt.Sprintf("⚠️ Failed to load inbox: %v", err))
	}
	a.refreshMessageList()

	root := a.views["root"]
	return a.SetRoot(root, true).EnableMouse(false).Run()
}

// Stop terminates the UI loop.
func (a *App) Stop() {
	a.cancel()
	a.Application.Stop()
}

// initViews assembles the root layout: list table, status line, and the
// command bar slot at the bottom.
func (a *App) initViews() {
	table := tview.NewTable()
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)
	table.SetBorder(a.Config.Layout.ShowBorders)
	if a.Config.Layout.ShowTitles {
		table.SetTitle(" 📬 Inbox ")
	}
	a.views["list"] = table

	status := tview.NewTextView()
	status.SetDynamicColors(true)
	status.SetTextAlign(tview.AlignLeft)
	a.views["status"] = status
	a.setStatusPersistent("Ready")

	text := tview.NewTextView()
	text.SetDynamicColors(false)
	text.SetWrap(true)
	text.SetBorder(a.Config.Layout.ShowBorders)
	a.views["text"] = text

	cmdBar := tview.NewTextView()
	cmdBar.SetTextAlign(tview.AlignLeft)
	a.views["cmdBar"] = cmdBar

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(status, 1, 0, false).
		AddItem(cmdBar, 1, 0, false)
	a.views["root"] = flex

	a.applyTheme()
	table.SetInputCapture(a.handleListKey)
	text.SetInputCapture(a.handleReadKey)
}

// handleListKey dispatches single-key shortcuts on the message list.
func (a *App) handleListKey(ev *tcell.EventKey) *tcell.EventKey {
	if a.cmdMode {
		return ev
	}
	if ev.Key() != tcell.KeyRune {
		if ev.Key() == tcell.KeyEnter {
			a.openSelectedMessage()
			return nil
		}
		return ev
	}

	switch string(ev.Rune()) {
	case a.Keys.Quit:
		a.Stop()
	case a.Keys.CommandMode:
		a.showCommandBar()
	case a.Keys.Refresh:
		a.reloadFolder()
	case a.Keys.LoadMore:
		a.loadMoreMessages()
	case a.Keys.Filter:
		a.showCommandBarWith("filter ")
	case a.Keys.ClearFilter:
		a.clearFilter()
	case a.Keys.Delete:
		if idx := a.selectedIndex(); idx > 0 {
			a.deleteByIndices([]int{idx})
		}
	case a.Keys.Restore:
		if idx := a.selectedIndex(); idx > 0 {
			a.restoreByIndices([]int{idx})
		}
	case a.Keys.Move:
		if idx := a.selectedIndex(); idx > 0 {
			a.showCommandBarWith(fmt.Sprintf("move %d ", idx))
		} else {
			a.showCommandBarWith("move ")
		}
	case a.Keys.ToggleRead:
		a.toggleSelectedRead()
	case a.Keys.Compose:
		a.showCommandBarWith("compose ")
	case a.Keys.Reply:
		a.replySelected()
	case a.Keys.Inbox:
		a.switchFolder(mailbox.FolderInbox)
	case a.Keys.Drafts:
		a.switchFolder(mailbox.FolderDrafts)
	case a.Keys.Sent:
		a.switchFolder(mailbox.FolderSent)
	case a.Keys.Deleted:
		a.switchFolder(mailbox.FolderDeleted)
	case a.Keys.Junk:
		a.switchFolder(mailbox.FolderJunk)
	case a.Keys.Help:
		a.showHelp()
	default:
		return ev
	}
	return nil
}

// handleReadKey dispatches keys while the read view is open.
func (a *App) handleReadKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyEscape {
		a.closeReadView()
		return nil
	}
	if ev.Key() == tcell.KeyRune && string(ev.Rune()) == a.Keys.Quit {
		a.closeReadView()
		return nil
	}
	if ev.Key() == tcell.KeyRune && string(ev.Rune()) == a.Keys.Reply {
		a.replySelected()
		return nil
	}
	return ev
}

// loadTheme resolves the configured theme, falling back to defaults.
func (a *App) loadTheme() {
	themeDir := a.Config.Layout.CustomThemeDir
	if themeDir == "" {
		a.currentTheme = config.DefaultColors()
		return
	}

	loader := config.NewThemeLoader(themeDir)
	theme, err := loader.LoadThemeFromFile(a.Config.Layout.CurrentTheme + ".yaml")
	if err != nil || loader.ValidateTheme(theme) != nil {
		if a.logger != nil && err != nil {
			a.logger.Printf("theme load failed, using defaults: %v", err)
		}
		a.currentTheme = config.DefaultColors()
		return
	}
	a.currentTheme = theme
}

// applyTheme pushes the current theme colors onto the views.
func (a *App) applyTheme() {
	theme := a.currentTheme
	if theme == nil {
		return
	}

	if table, ok := a.views["list"].(*tview.Table); ok {
		table.SetBackgroundColor(theme.Table.BgColor.Color())
		table.SetBorderColor(theme.Frame.Border.FgColor.Color())
	}
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetBackgroundColor(theme.Body.BgColor.Color())
		status.SetTextColor(theme.Status.InfoColor.Color())
	}
	if text, ok := a.views["text"].(*tview.TextView); ok {
		text.SetBackgroundColor(theme.Body.BgColor.Color())
		text.SetTextColor(theme.Body.FgColor.Color())
		text.SetBorderColor(theme.Frame.Border.FgColor.Color())
	}
}
