package services

import (
	"context"
	"fmt"

	"github.com/apastor/mailterm/internal/mailbox"
)

// MailboxRepository handles remote message data operations. The plain
// fetch path never retrieves bodies; the body path exists for the
// client-side filter, whose match surface includes the body text.
type MailboxRepository interface {
	FetchPage(ctx context.Context, folderID string, max int64, pageToken string) ([]mailbox.Summary, string, error)
	FetchPageWithBody(ctx context.Context, folderID string, max int64, pageToken string) ([]MessageWithBody, string, error)
	GetMessage(ctx context.Context, id, folderID string) (*mailbox.Content, error)
	MoveMessage(ctx context.Context, id, fromFolderID, toFolderID string) error
	DeleteMessage(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string, read bool) error
}

// ListService owns the current view: which folder is displayed, the
// session filter, and the indexed message page.
type ListService interface {
	SetFolder(ctx context.Context, folderID string) (*MessagePage, error)
	SetFilter(ctx context.Context, text string) (*MessagePage, error)
	ClearFilter(ctx context.Context) (*MessagePage, error)
	LoadInitial(ctx context.Context) (*MessagePage, error)
	LoadMore(ctx context.Context) ([]*MessageSummary, error)
	ApplyRemoval(ctx context.Context, removedIDs []string) (*MessagePage, error)
	ResolveIndices(indices []int) (ids []string, invalid []int)
	MarkRead(ctx context.Context, index int) error
	Page() *MessagePage
	Folder() string
	FilterText() string
	LastSearch() SearchStats
}

// MessageService performs remote mutations on batches of messages.
type MessageService interface {
	MoveMessages(ctx context.Context, ids []string, fromFolderID, toFolderID string) BulkResult
	DeleteMessages(ctx context.Context, ids []string) BulkResult
	ComposeDraft(ctx context.Context, to, subject, body string, cc []string) (string, error)
	SendMessage(ctx context.Context, to, subject, body string, cc []string) (string, error)
	SaveAttachments(ctx context.Context, messageID, dir string) ([]string, error)
}

// MessageSummary is one visible list entry: the normalized remote facet
// plus its 1-based position in the current page.
type MessageSummary struct {
	mailbox.Summary
	Index int
}

// MessageWithBody carries a summary together with the extracted body
// text used by the filter.
type MessageWithBody struct {
	mailbox.Summary
	Body string
}

// SearchStats describes how a bounded filter search ended. Exhausted and
// CeilingHit are mutually exclusive; when neither is set the search
// found its full target count with mailbox left to scan.
type SearchStats struct {
	Scanned    int
	Matched    int
	Exhausted  bool
	CeilingHit bool
}

// BulkResult tallies a batch mutation. Partial success is expected:
// failed ids stay on the page, succeeded ids are handed to ApplyRemoval.
type BulkResult struct {
	Requested int
	Succeeded []string
	Failed    map[string]error
}

// Summary renders the tally for the status line, e.g. "3 of 5 succeeded".
func (r BulkResult) Summary() string {
	if len(r.Failed) == 0 {
		return fmt.Sprintf("%d of %d succeeded", len(r.Succeeded), r.Requested)
	}
	return fmt.Sprintf("%d of %d succeeded, %d failed", len(r.Succeeded), r.Requested, len(r.Failed))
}

// AllSucceeded reports whether every requested mutation went through.
func (r BulkResult) AllSucceeded() bool {
	return len(r.Failed) == 0 && len(r.Succeeded) == r.Requested
}
