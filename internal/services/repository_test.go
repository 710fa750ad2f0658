package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepository_RemoteCtxAppliesTimeout(t *testing.T) {
	repo := NewMailboxRepository(nil)
	repo.SetTimeout(2 * time.Second)

	ctx, cancel := repo.remoteCtx(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
}

func TestRepository_RemoteCtxNoDeadlineByDefault(t *testing.T) {
	repo := NewMailboxRepository(nil)

	ctx, cancel := repo.remoteCtx(context.Background())
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

func TestRepository_RemoteCtxKeepsCallerDeadline(t *testing.T) {
	repo := NewMailboxRepository(nil)
	repo.SetTimeout(time.Hour)

	parent, parentCancel := context.WithTimeout(context.Background(), time.Second)
	defer parentCancel()

	ctx, cancel := repo.remoteCtx(parent)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}
