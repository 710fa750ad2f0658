package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apastor/mailterm/internal/mailbox"
)

func TestMessageService_MoveMessages(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(5)}
	svc := NewMessageService(remote, nil)
	ctx := context.Background()

	result := svc.MoveMessages(ctx, []string{"id001", "id002", "id003"}, mailbox.FolderInbox, mailbox.FolderDeleted)
	assert.True(t, result.AllSucceeded())
	assert.Equal(t, []string{"id001", "id002", "id003"}, result.Succeeded)
	assert.Equal(t, []string{"id001", "id002", "id003"}, remote.moved)
	assert.Equal(t, "3 of 3 succeeded", result.Summary())
}

func TestMessageService_MoveMessages_PartialFailure(t *testing.T) {
	// Per-id failures do not abort the batch; every remaining id is
	// still attempted and the tally reflects both outcomes.
	remote := &fakeRemote{
		messages: makeMessages(5),
		moveErrs: map[string]error{
			"id002": errors.New("remote rejected"),
			"id004": ErrNetworkUnavailable,
		},
	}
	svc := NewMessageService(remote, nil)

	result := svc.MoveMessages(context.Background(), []string{"id001", "id002", "id003", "id004", "id005"}, mailbox.FolderInbox, mailbox.FolderJunk)
	assert.False(t, result.AllSucceeded())
	assert.Equal(t, []string{"id001", "id003", "id005"}, result.Succeeded)
	assert.Len(t, result.Failed, 2)
	assert.ErrorIs(t, result.Failed["id004"], ErrNetworkUnavailable)
	assert.Equal(t, "3 of 5 succeeded, 2 failed", result.Summary())
}

func TestMessageService_DeleteMessages(t *testing.T) {
	remote := &fakeRemote{
		messages:   makeMessages(3),
		deleteErrs: map[string]error{"id002": errors.New("already gone")},
	}
	svc := NewMessageService(remote, nil)

	result := svc.DeleteMessages(context.Background(), []string{"id001", "id002", "id003"})
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, []string{"id001", "id003"}, result.Succeeded)
	assert.Equal(t, []string{"id001", "id003"}, remote.deleted)
	assert.Equal(t, "2 of 3 succeeded, 1 failed", result.Summary())
}

func TestMessageService_ComposeDraft_Validation(t *testing.T) {
	svc := NewMessageService(&fakeRemote{}, nil)

	_, err := svc.ComposeDraft(context.Background(), "", "hello", "body", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ComposeDraft(context.Background(), "bob@example.com", "", "body", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMessageService_SendMessage_Validation(t *testing.T) {
	svc := NewMessageService(&fakeRemote{}, nil)

	_, err := svc.SendMessage(context.Background(), "", "hello", "body", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SendMessage(context.Background(), "bob@example.com", "", "body", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	path := uniquePath(dir, "report.pdf")
	assert.Equal(t, filepath.Join(dir, "report.pdf"), path)

	assert.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "report (1).pdf"), uniquePath(dir, "report.pdf"))

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "report (1).pdf"), []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "report (2).pdf"), uniquePath(dir, "report.pdf"))
}
