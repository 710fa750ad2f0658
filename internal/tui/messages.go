package tui

import (
	"errors"
	"fmt"

	"github.com/derailed/tview"

	"github.com/apastor/mailterm/internal/editor"
	"github.com/apastor/mailterm/internal/mailbox"
	"github.com/apastor/mailterm/internal/render"
	"github.com/apastor/mailterm/internal/services"
)

// refreshMessageList redraws the table from the current page. Row 0 is
// the header; data row n shows the message at display index n.
func (a *App) refreshMessageList() {
	table, ok := a.views["list"].(*tview.Table)
	if !ok {
		return
	}

	page := a.listService.Page()
	table.Clear()

	_, _, width, _ := table.GetInnerRect()
	if width <= 0 {
		width = 100
	}
	widths := render.DefaultListRowWidths(width)

	header := fmt.Sprintf("%4s %3s %s %s %s",
		"#", "", render.Pad("From", widths.From),
		render.Pad("Subject", widths.Subject), "Date")
	headerCell := tview.NewTableCell(header).SetSelectable(false)
	if a.currentTheme != nil {
		headerCell.SetTextColor(a.currentTheme.Table.HeaderFgColor.Color())
	}
	table.SetCell(0, 0, headerCell)

	if page == nil {
		a.updateListTitle(0, false)
		return
	}

	for i, item := range page.Items {
		row := render.FormatIndexedRow(item.Index, item.Summary, widths)
		cell := tview.NewTableCell(row).SetExpansion(1)
		if a.currentTheme != nil {
			if item.Unread {
				cell.SetTextColor(a.currentTheme.Message.UnreadColor.Color())
			} else {
				cell.SetTextColor(a.currentTheme.Message.ReadColor.Color())
			}
		}
		table.SetCell(i+1, 0, cell)
	}

	a.updateListTitle(page.Count(), page.HasMore())
}

// updateListTitle reflects folder, count, and filter in the list title.
func (a *App) updateListTitle(count int, hasMore bool) {
	table, ok := a.views["list"].(*tview.Table)
	if !ok || !a.Config.Layout.ShowTitles {
		return
	}

	title := fmt.Sprintf(" 📬 %s (%d", mailbox.FolderName(a.listService.Folder()), count)
	if hasMore {
		title += "+"
	}
	title += ")"
	if filter := a.listService.FilterText(); filter != "" {
		title += fmt.Sprintf(" filter: %q", filter)
	}
	title += " "
	table.SetTitle(title)
}

// selectedIndex returns the 1-based display index of the selected row,
// or 0 when nothing selectable is under the cursor.
func (a *App) selectedIndex() int {
	table, ok := a.views["list"].(*tview.Table)
	if !ok {
		return 0
	}
	row, _ := table.GetSelection()
	page := a.listService.Page()
	if page == nil || row < 1 || row > page.Count() {
		return 0
	}
	return row
}

// switchFolder changes the active folder; the session filter persists.
func (a *App) switchFolder(folderID string) {
	if _, err := a.listService.SetFolder(a.ctx, folderID); err != nil {
		a.showError(fmt.Sprintf("Failed to open %s: %v", mailbox.FolderName(folderID), err))
		return
	}
	a.refreshMessageList()
	a.showSearchOutcome()
}

// reloadFolder refetches the first page of the current folder.
func (a *App) reloadFolder() {
	if _, err := a.listService.LoadInitial(a.ctx); err != nil {
		a.showError(fmt.Sprintf("Refresh failed: %v", err))
		return
	}
	a.refreshMessageList()
	a.showSearchOutcome()
}

// loadMoreMessages appends the next batch to the list.
func (a *App) loadMoreMessages() {
	added, err := a.listService.LoadMore(a.ctx)
	if err != nil {
		if errors.Is(err, services.ErrNoMoreMessages) {
			a.showInfo("No more messages")
		} else {
			a.showError(fmt.Sprintf("Load more failed: %v", err))
		}
		return
	}
	a.refreshMessageList()
	a.showInfo(fmt.Sprintf("Loaded %d more messages", len(added)))
}

// applyFilter sets the session filter and reports the scan outcome.
func (a *App) applyFilter(text string) {
	if _, err := a.listService.SetFilter(a.ctx, text); err != nil {
		a.showError(fmt.Sprintf("Filter failed: %v", err))
		return
	}
	a.refreshMessageList()
	a.showSearchOutcome()
}

// clearFilter removes the session filter and reloads.
func (a *App) clearFilter() {
	if a.listService.FilterText() == "" {
		return
	}
	if _, err := a.listService.ClearFilter(a.ctx); err != nil {
		a.showError(fmt.Sprintf("Clear filter failed: %v", err))
		return
	}
	a.refreshMessageList()
	a.showInfo("Filter cleared")
}

// openSelectedMessage fetches the full message and shows the read view.
// Opening a message marks it read.
func (a *App) openSelectedMessage() {
	idx := a.selectedIndex()
	if idx == 0 {
		return
	}
	page := a.listService.Page()
	item := page.ByIndex(idx)
	if item == nil {
		return
	}

	content, err := a.client.GetMessageWithContent(a.ctx, item.ID, a.listService.Folder())
	if err != nil {
		a.showError(fmt.Sprintf("Failed to open message %d: %v", idx, err))
		return
	}

	if item.Unread {
		if err := a.listService.MarkRead(a.ctx, idx); err != nil && a.logger != nil {
			a.logger.Printf("mark read failed for %s: %v", item.ID, err)
		}
	}

	text, ok := a.views["text"].(*tview.TextView)
	if !ok {
		return
	}
	_, _, width, _ := text.GetInnerRect()
	if width <= 0 {
		width = 80
	}
	text.SetText(render.FormatMessage(content, width))
	text.ScrollToBeginning()
	if a.Config.Layout.ShowTitles {
		text.SetTitle(fmt.Sprintf(" ✉️  %s ", render.Truncate(content.Subject, 60)))
	}

	a.readVisible = true
	a.readID = item.ID
	a.SetRoot(text, true)
	a.SetFocus(text)
}

// closeReadView returns to the message list, redrawing it so the read
// flag change is visible.
func (a *App) closeReadView() {
	a.readVisible = false
	a.readID = ""
	a.refreshMessageList()
	a.SetRoot(a.views["root"], true)
	a.SetFocus(a.views["list"])
}

// toggleSelectedRead flips the read state of the selected message.
func (a *App) toggleSelectedRead() {
	idx := a.selectedIndex()
	if idx == 0 {
		return
	}
	page := a.listService.Page()
	item := page.ByIndex(idx)
	if item == nil {
		return
	}

	if item.Unread {
		if err := a.listService.MarkRead(a.ctx, idx); err != nil {
			a.showError(fmt.Sprintf("Mark read failed: %v", err))
			return
		}
	} else {
		if err := a.client.MarkAsUnread(a.ctx, item.ID); err != nil {
			a.showError(fmt.Sprintf("Mark unread failed: %v", err))
			return
		}
		item.Unread = true
	}
	a.refreshMessageList()
}

// composeMessage suspends the UI, runs the external editor, and saves
// the result as a draft addressed to the given recipient.
func (a *App) composeMessage(to, subject, quoted string) {
	var draft *editor.Draft
	var editErr error
	a.Suspend(func() {
		draft, editErr = a.draftEditor.Compose(a.ctx, subject, quoted)
	})
	if editErr != nil {
		a.showError(fmt.Sprintf("Compose aborted: %v", editErr))
		return
	}

	id, err := a.messageService.ComposeDraft(a.ctx, to, draft.Subject, draft.Body, nil)
	if err != nil {
		a.showError(fmt.Sprintf("Failed to save draft: %v", err))
		return
	}
	a.showInfo(fmt.Sprintf("Draft saved (%s)", id))
}

// sendMessage opens the editor and sends the result immediately
// instead of leaving a draft.
func (a *App) sendMessage(to string) {
	var draft *editor.Draft
	var editErr error
	a.Suspend(func() {
		draft, editErr = a.draftEditor.Compose(a.ctx, "", "")
	})
	if editErr != nil {
		a.showError(fmt.Sprintf("Compose aborted: %v", editErr))
		return
	}

	id, err := a.messageService.SendMessage(a.ctx, to, draft.Subject, draft.Body, nil)
	if err != nil {
		a.showError(fmt.Sprintf("Failed to send: %v", err))
		return
	}
	a.showInfo(fmt.Sprintf("Sent to %s (%s)", to, id))
}

// replySelected opens the editor quoting the selected message and saves
// a draft addressed to its sender.
func (a *App) replySelected() {
	idx := a.selectedIndex()
	if idx == 0 && a.readID == "" {
		return
	}

	var item *services.MessageSummary
	if idx > 0 {
		item = a.listService.Page().ByIndex(idx)
	} else {
		for _, it := range a.listService.Page().Items {
			if it.ID == a.readID {
				item = it
				break
			}
		}
	}
	if item == nil {
		return
	}

	content, err := a.client.GetMessageWithContent(a.ctx, item.ID, a.listService.Folder())
	if err != nil {
		a.showError(fmt.Sprintf("Failed to load message for reply: %v", err))
		return
	}

	quoted := render.QuoteForReply(render.BodyText(content))
	a.composeMessage(item.FromAddress, "Re: "+item.Subject, quoted)
}
