package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/apastor/mailterm/internal/mailbox"
)

// MessageServiceImpl implements MessageService. Bulk mutations run one
// remote call per id; a failing id never aborts the rest of the batch.
type MessageServiceImpl struct {
	repo   MailboxRepository
	client *mailbox.Client
	logger *log.Logger // Optional - for debug logging
}

// NewMessageService creates a new message service.
func NewMessageService(repo MailboxRepository, client *mailbox.Client) *MessageServiceImpl {
	return &MessageServiceImpl{repo: repo, client: client}
}

// SetLogger sets the logger for debug output
func (s *MessageServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// MoveMessages moves a batch between folders, tallying per-id results.
func (s *MessageServiceImpl) MoveMessages(ctx context.Context, ids []string, fromFolderID, toFolderID string) BulkResult {
	result := BulkResult{Requested: len(ids), Failed: map[string]error{}}
	for _, id := range ids {
		if err := s.repo.MoveMessage(ctx, id, fromFolderID, toFolderID); err != nil {
			result.Failed[id] = err
			if s.logger != nil {
				s.logger.Printf("failed to move %s to %s: %v", id, toFolderID, err)
			}
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// DeleteMessages permanently deletes a batch, tallying per-id results.
func (s *MessageServiceImpl) DeleteMessages(ctx context.Context, ids []string) BulkResult {
	result := BulkResult{Requested: len(ids), Failed: map[string]error{}}
	for _, id := range ids {
		if err := s.repo.DeleteMessage(ctx, id); err != nil {
			result.Failed[id] = err
			if s.logger != nil {
				s.logger.Printf("failed to delete %s: %v", id, err)
			}
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// ComposeDraft creates a draft from externally edited content.
func (s *MessageServiceImpl) ComposeDraft(ctx context.Context, to, subject, body string, cc []string) (string, error) {
	if to == "" || subject == "" {
		return "", fmt.Errorf("to and subject cannot be empty: %w", ErrInvalidInput)
	}
	id, err := s.client.CreateDraft(ctx, to, subject, body, cc)
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return id, nil
}

// SendMessage sends externally edited content straight out, without
// leaving a draft behind.
func (s *MessageServiceImpl) SendMessage(ctx context.Context, to, subject, body string, cc []string) (string, error) {
	if to == "" || subject == "" {
		return "", fmt.Errorf("to and subject cannot be empty: %w", ErrInvalidInput)
	}
	from, err := s.client.ActiveAccountEmail(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve sender address: %w", err)
	}
	id, err := s.client.SendMessage(ctx, from, to, subject, body, cc)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return id, nil
}

// SaveAttachments downloads every attachment on a message into dir and
// returns the written file paths. Duplicate filenames get a numeric
// suffix so nothing is overwritten.
func (s *MessageServiceImpl) SaveAttachments(ctx context.Context, messageID, dir string) ([]string, error) {
	refs, err := s.client.ListAttachments(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("message has no attachments: %w", ErrNotFound)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var paths []string
	for _, ref := range refs {
		data, name, err := s.client.GetAttachment(ctx, messageID, ref.ID)
		if err != nil {
			return paths, fmt.Errorf("failed to download %s: %w", ref.Filename, err)
		}
		if name == "" {
			name = ref.Filename
		}
		path := uniquePath(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		if s.logger != nil {
			s.logger.Printf("saved attachment %s (%d bytes)", path, len(data))
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// uniquePath appends " (n)" before the extension until the name is free.
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
		if _, err := os.Stat(path); err != nil {
			return path
		}
	}
}
