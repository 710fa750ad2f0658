package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/apastor/mailterm/internal/db"
	"github.com/apastor/mailterm/internal/mailbox"
	"github.com/apastor/mailterm/internal/render"
)

// MailboxRepositoryImpl implements MailboxRepository over the remote
// mailbox client, with an optional SQLite-backed body cache feeding the
// filter path.
type MailboxRepositoryImpl struct {
	client       *mailbox.Client
	bodyCache    *db.BodyCacheStore // Optional - nil disables caching
	accountEmail string
	timeout      time.Duration // Optional - bounds each remote round trip
	logger       *log.Logger   // Optional - for debug logging
}

// NewMailboxRepository creates a new mailbox repository.
func NewMailboxRepository(client *mailbox.Client) *MailboxRepositoryImpl {
	return &MailboxRepositoryImpl{client: client}
}

// SetBodyCache attaches a body cache keyed by the given account.
func (r *MailboxRepositoryImpl) SetBodyCache(cache *db.BodyCacheStore, accountEmail string) {
	r.bodyCache = cache
	r.accountEmail = accountEmail
}

// SetLogger sets the logger for debug output
func (r *MailboxRepositoryImpl) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// SetTimeout bounds each remote round trip. Zero disables the bound.
func (r *MailboxRepositoryImpl) SetTimeout(d time.Duration) {
	r.timeout = d
}

// remoteCtx derives the context used for one remote call. A filtered
// page fetch makes many round trips, so the bound applies per call
// rather than per method.
func (r *MailboxRepositoryImpl) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// FetchPage retrieves one page of summaries without bodies.
func (r *MailboxRepositoryImpl) FetchPage(ctx context.Context, folderID string, max int64, pageToken string) ([]mailbox.Summary, string, error) {
	ctx, cancel := r.remoteCtx(ctx)
	defer cancel()
	summaries, nextToken, err := r.client.ListFolderPage(ctx, folderID, max, pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch page: %w", err)
	}
	return summaries, nextToken, nil
}

// FetchPageWithBody retrieves one page with body text for the filter
// surface. Bodies already cached for this account are reused; misses
// are fetched in full and cached for the next scan.
func (r *MailboxRepositoryImpl) FetchPageWithBody(ctx context.Context, folderID string, max int64, pageToken string) ([]MessageWithBody, string, error) {
	listCtx, cancel := r.remoteCtx(ctx)
	summaries, nextToken, err := r.client.ListFolderPage(listCtx, folderID, max, pageToken)
	cancel()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch page: %w", err)
	}

	out := make([]MessageWithBody, 0, len(summaries))
	for _, summary := range summaries {
		body, err := r.bodyFor(ctx, summary.ID, folderID)
		if err != nil {
			return nil, "", err
		}
		out = append(out, MessageWithBody{Summary: summary, Body: body})
	}
	return out, nextToken, nil
}

func (r *MailboxRepositoryImpl) bodyFor(ctx context.Context, id, folderID string) (string, error) {
	if r.bodyCache != nil {
		if body, ok, err := r.bodyCache.Load(ctx, r.accountEmail, id); err == nil && ok {
			return body, nil
		}
	}

	fetchCtx, cancel := r.remoteCtx(ctx)
	content, err := r.client.GetMessageWithContent(fetchCtx, id, folderID)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to fetch body for message %s: %w", id, err)
	}
	body := render.BodyText(content)

	if r.bodyCache != nil && body != "" {
		if err := r.bodyCache.Save(ctx, r.accountEmail, id, body); err != nil && r.logger != nil {
			r.logger.Printf("could not cache body for %s: %v", id, err)
		}
	}
	return body, nil
}

// GetMessage retrieves one message in full for the read view.
func (r *MailboxRepositoryImpl) GetMessage(ctx context.Context, id, folderID string) (*mailbox.Content, error) {
	if id == "" {
		return nil, fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	ctx, cancel := r.remoteCtx(ctx)
	defer cancel()
	content, err := r.client.GetMessageWithContent(ctx, id, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return content, nil
}

// MoveMessage relabels one message between folders.
func (r *MailboxRepositoryImpl) MoveMessage(ctx context.Context, id, fromFolderID, toFolderID string) error {
	if id == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	ctx, cancel := r.remoteCtx(ctx)
	defer cancel()
	return r.client.MoveMessage(ctx, id, fromFolderID, toFolderID)
}

// DeleteMessage permanently deletes one message.
func (r *MailboxRepositoryImpl) DeleteMessage(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	delCtx, cancel := r.remoteCtx(ctx)
	err := r.client.DeleteMessage(delCtx, id)
	cancel()
	if err != nil {
		return err
	}
	if r.bodyCache != nil {
		_ = r.bodyCache.Delete(ctx, r.accountEmail, id)
	}
	return nil
}

// MarkRead flips the read flag on one message.
func (r *MailboxRepositoryImpl) MarkRead(ctx context.Context, id string, read bool) error {
	if id == "" {
		return fmt.Errorf("message ID cannot be empty: %w", ErrInvalidInput)
	}
	ctx, cancel := r.remoteCtx(ctx)
	defer cancel()
	if read {
		return r.client.MarkAsRead(ctx, id)
	}
	return r.client.MarkAsUnread(ctx, id)
}
