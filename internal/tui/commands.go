package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/apastor/mailterm/internal/mailbox"
	"github.com/apastor/mailterm/internal/ranges"
	"github.com/apastor/mailterm/internal/services"
)

// command is one parsed command-bar entry.
type command struct {
	name    string
	indices []int
	arg     string
}

// folderAliases maps command names onto folder IDs.
var folderAliases = map[string]string{
	"inbox":   mailbox.FolderInbox,
	"drafts":  mailbox.FolderDrafts,
	"sent":    mailbox.FolderSent,
	"deleted": mailbox.FolderDeleted,
	"trash":   mailbox.FolderDeleted,
	"junk":    mailbox.FolderJunk,
	"spam":    mailbox.FolderJunk,
}

// parseCommand parses a command-bar line. Index-taking commands reject
// the whole line on a malformed expression so nothing partial runs.
func parseCommand(input string) (*command, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	if folderID, ok := folderAliases[name]; ok && len(args) == 0 {
		return &command{name: "folder", arg: folderID}, nil
	}

	switch name {
	case "d", "delete", "restore", "purge":
		if name == "d" {
			name = "delete"
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: %s <numbers>", name)
		}
		indices, err := ranges.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad message numbers %q: %w", args[0], err)
		}
		return &command{name: name, indices: indices}, nil

	case "m", "move":
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: move <numbers> <folder>")
		}
		indices, err := ranges.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad message numbers %q: %w", args[0], err)
		}
		folderID, ok := folderAliases[strings.ToLower(args[1])]
		if !ok {
			return nil, fmt.Errorf("unknown folder %q", args[1])
		}
		return &command{name: "move", indices: indices, arg: folderID}, nil

	case "read":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: read <numbers>")
		}
		indices, err := ranges.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad message numbers %q: %w", args[0], err)
		}
		return &command{name: "read", indices: indices}, nil

	case "filter", "f":
		if len(args) == 0 {
			return nil, fmt.Errorf("usage: filter <text>")
		}
		return &command{name: "filter", arg: strings.Join(args, " ")}, nil

	case "clear":
		return &command{name: "clear"}, nil

	case "more", "next":
		return &command{name: "more"}, nil

	case "compose", "c":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: compose <address>")
		}
		return &command{name: "compose", arg: args[0]}, nil

	case "send":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: send <address>")
		}
		return &command{name: "send", arg: args[0]}, nil

	case "save":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("usage: save <numbers> [dir]")
		}
		indices, err := ranges.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad message numbers %q: %w", args[0], err)
		}
		cmd := &command{name: "save", indices: indices}
		if len(args) == 2 {
			cmd.arg = args[1]
		}
		return cmd, nil

	case "help", "?":
		return &command{name: "help"}, nil

	case "q", "quit":
		return &command{name: "quit"}, nil
	}

	return nil, fmt.Errorf("unknown command %q", name)
}

// showCommandBar opens an empty command bar.
func (a *App) showCommandBar() {
	a.showCommandBarWith("")
}

// showCommandBarWith opens the command bar pre-filled with text.
func (a *App) showCommandBarWith(prefill string) {
	a.cmdMode = true
	a.cmdHistoryIndex = len(a.cmdHistory)

	input := tview.NewInputField()
	input.SetLabel(":")
	input.SetFieldWidth(0)
	input.SetText(prefill)
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			cmd := input.GetText()
			a.hideCommandBar()
			a.executeCommand(cmd)
		}
	})
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyEscape:
			a.hideCommandBar()
			return nil
		case tcell.KeyUp:
			if a.cmdHistoryIndex > 0 {
				a.cmdHistoryIndex--
				input.SetText(a.cmdHistory[a.cmdHistoryIndex])
			}
			return nil
		case tcell.KeyDown:
			if a.cmdHistoryIndex < len(a.cmdHistory)-1 {
				a.cmdHistoryIndex++
				input.SetText(a.cmdHistory[a.cmdHistoryIndex])
			} else {
				a.cmdHistoryIndex = len(a.cmdHistory)
				input.SetText("")
			}
			return nil
		}
		return ev
	})

	if flex, ok := a.views["root"].(*tview.Flex); ok {
		flex.RemoveItem(a.views["cmdBar"])
		a.views["cmdBar"] = input
		flex.AddItem(input, 1, 0, true)
	}
	a.SetFocus(input)
}

// hideCommandBar closes the command bar and restores list focus.
func (a *App) hideCommandBar() {
	a.cmdMode = false
	if flex, ok := a.views["root"].(*tview.Flex); ok {
		flex.RemoveItem(a.views["cmdBar"])
		bar := tview.NewTextView()
		a.views["cmdBar"] = bar
		flex.AddItem(bar, 1, 0, false)
	}
	a.SetFocus(a.views["list"])
}

// executeCommand parses and runs one command-bar line.
func (a *App) executeCommand(input string) {
	if strings.TrimSpace(input) == "" {
		return
	}
	a.cmdHistory = append(a.cmdHistory, input)

	cmd, err := parseCommand(input)
	if err != nil {
		a.showError(fmt.Sprintf("Invalid command: %v", err))
		return
	}

	switch cmd.name {
	case "folder":
		a.switchFolder(cmd.arg)
	case "delete":
		a.deleteByIndices(cmd.indices)
	case "restore":
		a.restoreByIndices(cmd.indices)
	case "purge":
		a.purgeByIndices(cmd.indices)
	case "move":
		a.moveByIndices(cmd.indices, cmd.arg)
	case "read":
		a.markReadByIndices(cmd.indices)
	case "filter":
		a.applyFilter(cmd.arg)
	case "clear":
		a.clearFilter()
	case "more":
		a.loadMoreMessages()
	case "compose":
		a.composeMessage(cmd.arg, "", "")
	case "send":
		a.sendMessage(cmd.arg)
	case "save":
		a.saveAttachmentsByIndices(cmd.indices, cmd.arg)
	case "help":
		a.showHelp()
	case "quit":
		a.Stop()
	}
}

// resolveIndices maps display indices to ids, reporting each invalid
// number while keeping the valid remainder actionable.
func (a *App) resolveIndices(indices []int) []string {
	ids, invalid := a.listService.ResolveIndices(indices)
	for _, n := range invalid {
		a.showError(fmt.Sprintf("No message number %d on the list", n))
	}
	return ids
}

// deleteByIndices moves messages to the Deleted folder, or permanently
// purges when already viewing it. Both paths confirm first; cancelling
// leaves the list exactly as it was.
func (a *App) deleteByIndices(indices []int) {
	ids := a.resolveIndices(indices)
	if len(ids) == 0 {
		return
	}

	if a.listService.Folder() == mailbox.FolderDeleted {
		a.confirm(fmt.Sprintf("Permanently delete %d message(s)? This cannot be undone.", len(ids)), func() {
			a.performRemoval("Purged", ids, func(ids []string) services.BulkResult {
				return a.messageService.DeleteMessages(a.ctx, ids)
			})
		})
		return
	}

	from := a.listService.Folder()
	a.confirm(fmt.Sprintf("Delete %d message(s)?", len(ids)), func() {
		a.performRemoval("Deleted", ids, func(ids []string) services.BulkResult {
			return a.messageService.MoveMessages(a.ctx, ids, from, mailbox.FolderDeleted)
		})
	})
}

// purgeByIndices permanently deletes, regardless of folder.
func (a *App) purgeByIndices(indices []int) {
	ids := a.resolveIndices(indices)
	if len(ids) == 0 {
		return
	}
	a.confirm(fmt.Sprintf("Permanently delete %d message(s)? This cannot be undone.", len(ids)), func() {
		a.performRemoval("Purged", ids, func(ids []string) services.BulkResult {
			return a.messageService.DeleteMessages(a.ctx, ids)
		})
	})
}

// restoreByIndices moves messages from Deleted back to the inbox.
func (a *App) restoreByIndices(indices []int) {
	if a.listService.Folder() != mailbox.FolderDeleted {
		a.showError("Restore only works in the Deleted folder")
		return
	}
	ids := a.resolveIndices(indices)
	if len(ids) == 0 {
		return
	}
	a.confirm(fmt.Sprintf("Restore %d message(s) to Inbox?", len(ids)), func() {
		a.performRemoval("Restored", ids, func(ids []string) services.BulkResult {
			return a.messageService.MoveMessages(a.ctx, ids, mailbox.FolderDeleted, mailbox.FolderInbox)
		})
	})
}

// moveByIndices moves messages to the named folder.
func (a *App) moveByIndices(indices []int, folderID string) {
	from := a.listService.Folder()
	if folderID == from {
		a.showInfo("Messages are already there")
		return
	}
	ids := a.resolveIndices(indices)
	if len(ids) == 0 {
		return
	}
	a.confirm(fmt.Sprintf("Move %d message(s) to %s?", len(ids), mailbox.FolderName(folderID)), func() {
		a.performRemoval("Moved", ids, func(ids []string) services.BulkResult {
			return a.messageService.MoveMessages(a.ctx, ids, from, folderID)
		})
	})
}

// markReadByIndices marks each listed message as read.
func (a *App) markReadByIndices(indices []int) {
	marked := 0
	for _, n := range indices {
		if err := a.listService.MarkRead(a.ctx, n); err != nil {
			if errors.Is(err, services.ErrMessageNotFound) {
				a.showError(fmt.Sprintf("No message number %d on the list", n))
			} else {
				a.showError(fmt.Sprintf("Mark read failed for %d: %v", n, err))
			}
			continue
		}
		marked++
	}
	a.refreshMessageList()
	if marked > 0 {
		a.showInfo(fmt.Sprintf("Marked %d message(s) read", marked))
	}
}

// saveAttachmentsByIndices downloads the attachments of each listed
// message into dir, defaulting to ~/Downloads.
func (a *App) saveAttachmentsByIndices(indices []int, dir string) {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, "Downloads")
		} else {
			dir = "."
		}
	}

	saved := 0
	for _, n := range indices {
		item := a.listService.Page().ByIndex(n)
		if item == nil {
			a.showError(fmt.Sprintf("No message number %d on the list", n))
			continue
		}
		paths, err := a.messageService.SaveAttachments(a.ctx, item.ID, dir)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				a.showError(fmt.Sprintf("Message %d has no attachments", n))
			} else {
				a.showError(fmt.Sprintf("Save failed for %d: %v", n, err))
			}
			continue
		}
		saved += len(paths)
	}
	if saved > 0 {
		a.showInfo(fmt.Sprintf("Saved %d attachment(s) to %s", saved, dir))
	}
}

// performRemoval runs a bulk mutation, then drops only the ids that
// actually succeeded from the list so failed ones stay visible.
func (a *App) performRemoval(verb string, ids []string, act func([]string) services.BulkResult) {
	result := act(ids)

	_, err := a.listService.ApplyRemoval(a.ctx, result.Succeeded)
	a.refreshMessageList()
	if err != nil {
		a.showError(fmt.Sprintf("%s %s, but refill failed: %v", verb, result.Summary(), err))
		return
	}

	if result.AllSucceeded() {
		a.showInfo(fmt.Sprintf("%s %d message(s)", verb, len(result.Succeeded)))
	} else {
		a.showError(fmt.Sprintf("%s: %s", verb, result.Summary()))
	}
}

// confirm shows a modal; Cancel returns to the unchanged list.
func (a *App) confirm(prompt string, onConfirm func()) {
	if a.confirmFn != nil {
		a.confirmFn(prompt, onConfirm)
		return
	}
	modal := tview.NewModal().
		SetText(prompt).
		AddButtons([]string{"Confirm", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			a.SetRoot(a.views["root"], true)
			a.SetFocus(a.views["list"])
			if label == "Confirm" {
				onConfirm()
			} else {
				a.refreshMessageList()
			}
		})
	a.SetRoot(modal, true)
}

// showHelp displays the key and command reference.
func (a *App) showHelp() {
	help := `mailterm

Keys
  Enter     open message        ` + a.Keys.ToggleRead + `  toggle read
  ` + a.Keys.Delete + `         delete selected      ` + a.Keys.Restore + `  restore selected
  ` + a.Keys.Move + `         move selected
  ` + a.Keys.Refresh + `         refresh              ` + a.Keys.LoadMore + `  load more
  ` + a.Keys.Filter + `         filter               ` + a.Keys.ClearFilter + `  clear filter
  ` + a.Keys.Compose + `         compose              ` + a.Keys.Reply + `  reply
  1-5       folders (Inbox, Drafts, Sent, Deleted, Junk)
  ` + a.Keys.CommandMode + `         command bar          ` + a.Keys.Quit + `  quit

Commands
  delete 1,3-5      move messages to Deleted (purges inside Deleted)
  move 2-4 junk     move messages to a folder
  restore 3         move back to Inbox (Deleted only)
  purge 1-2         permanently delete
  read 1-10         mark messages read
  filter <text>     case-insensitive match on subject, sender, body
  clear             drop the filter
  more              load the next batch
  compose <addr>    write a new draft
  send <addr>       write and send immediately
  save 2 [dir]      download attachments (default ~/Downloads)`

	modal := tview.NewModal().
		SetText(help).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(_ int, _ string) {
			a.SetRoot(a.views["root"], true)
			a.SetFocus(a.views["list"])
		})
	a.SetRoot(modal, true)
}
