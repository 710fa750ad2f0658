package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apastor/mailterm/internal/mailbox"
)

// fakeRemote is a scripted MailboxRepository backed by an in-memory
// message list. Continuation tokens are stringified offsets, which
// mirrors how an opaque remote cursor behaves from the client's side.
type fakeRemote struct {
	messages []mailbox.Summary
	bodies   map[string]string

	fetchErr       error
	failAfterFetch int // fail once this many fetches have happened; 0 disables
	fetchCalls     int
	bodyFetchCalls int

	moveErrs   map[string]error
	deleteErrs map[string]error
	moved      []string
	deleted    []string
}

func (f *fakeRemote) slicePage(max int64, pageToken string) ([]mailbox.Summary, string, error) {
	f.fetchCalls++
	if f.fetchErr != nil && (f.failAfterFetch == 0 || f.fetchCalls > f.failAfterFetch) {
		return nil, "", f.fetchErr
	}
	offset := 0
	if pageToken != "" {
		offset, _ = strconv.Atoi(pageToken)
	}
	if offset >= len(f.messages) {
		return nil, "", nil
	}
	end := offset + int(max)
	if end > len(f.messages) {
		end = len(f.messages)
	}
	page := f.messages[offset:end]
	next := ""
	if end < len(f.messages) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

func (f *fakeRemote) FetchPage(ctx context.Context, folderID string, max int64, pageToken string) ([]mailbox.Summary, string, error) {
	return f.slicePage(max, pageToken)
}

func (f *fakeRemote) FetchPageWithBody(ctx context.Context, folderID string, max int64, pageToken string) ([]MessageWithBody, string, error) {
	f.bodyFetchCalls++
	page, next, err := f.slicePage(max, pageToken)
	if err != nil {
		return nil, "", err
	}
	out := make([]MessageWithBody, len(page))
	for i, s := range page {
		out[i] = MessageWithBody{Summary: s, Body: f.bodies[s.ID]}
	}
	return out, next, nil
}

func (f *fakeRemote) GetMessage(ctx context.Context, id, folderID string) (*mailbox.Content, error) {
	for _, m := range f.messages {
		if m.ID == id {
			return &mailbox.Content{Summary: m, PlainText: f.bodies[id]}, nil
		}
	}
	return nil, ErrMessageNotFound
}

func (f *fakeRemote) MoveMessage(ctx context.Context, id, fromFolderID, toFolderID string) error {
	if err := f.moveErrs[id]; err != nil {
		return err
	}
	f.moved = append(f.moved, id)
	return nil
}

func (f *fakeRemote) DeleteMessage(ctx context.Context, id string) error {
	if err := f.deleteErrs[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) MarkRead(ctx context.Context, id string, read bool) error {
	return nil
}

// makeMessages builds n summaries sub1..subN from alice, most recent first.
func makeMessages(n int) []mailbox.Summary {
	out := make([]mailbox.Summary, n)
	for i := 0; i < n; i++ {
		out[i] = mailbox.Summary{
			ID:          fmt.Sprintf("id%03d", i+1),
			Subject:     fmt.Sprintf("subject %d", i+1),
			FromAddress: "alice@example.com",
			FromName:    "Alice",
			Unread:      true,
		}
	}
	return out
}

// assertDense checks the dense 1..N index invariant.
func assertDense(t *testing.T, page *MessagePage) {
	t.Helper()
	seen := make(map[string]bool)
	for i, item := range page.Items {
		assert.Equal(t, i+1, item.Index, "index at position %d must be dense", i)
		assert.False(t, seen[item.ID], "duplicate id %s on page", item.ID)
		seen[item.ID] = true
	}
}

func TestListService_LoadInitial(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(40)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	page, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 10, page.Count())
	assert.True(t, page.HasMore())
	assertDense(t, page)

	// Server order preserved verbatim.
	assert.Equal(t, "id001", page.Items[0].ID)
	assert.Equal(t, "id010", page.Items[9].ID)
}

func TestListService_LoadInitial_EmptyFolderIsNotAnError(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewListService(remote, ListOptions{PageSize: 10})

	page, err := svc.LoadInitial(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, page.Count())
	assert.False(t, page.HasMore())
}

func TestListService_LoadMore(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(25)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)

	added, err := svc.LoadMore(ctx)
	assert.NoError(t, err)
	assert.Len(t, added, 10, "only the newly appended items are returned")
	assert.Equal(t, 11, added[0].Index, "indices continue from the current count")
	assert.Equal(t, 20, svc.Page().Count())
	assertDense(t, svc.Page())

	added, err = svc.LoadMore(ctx)
	assert.NoError(t, err)
	assert.Len(t, added, 5)
	assert.False(t, svc.Page().HasMore(), "token becomes absent at end of data")

	// Without a token, load-more is a distinct no-more signal, not an error state.
	_, err = svc.LoadMore(ctx)
	assert.ErrorIs(t, err, ErrNoMoreMessages)
	assert.Equal(t, 25, svc.Page().Count())
	assertDense(t, svc.Page())
}

func TestListService_LoadMore_RemoteFailureKeepsPage(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(30)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	before := svc.Page().IDs()
	beforeToken := svc.Page().ContinuationToken

	remote.fetchErr = errors.New("remote down")
	_, err = svc.LoadMore(ctx)
	assert.Error(t, err)

	assert.Equal(t, before, svc.Page().IDs(), "old state remains valid after a failed fetch")
	assert.Equal(t, beforeToken, svc.Page().ContinuationToken)
	assertDense(t, svc.Page())
}

func TestListService_Filter_FoundAllBeforeExhaustion(t *testing.T) {
	// 30 messages, 3 match, target 10: the search must drain the folder,
	// return the 3 matches, and report exhaustion rather than a ceiling.
	msgs := makeMessages(30)
	msgs[4].Subject = "project kickoff"
	msgs[11].Subject = "Project update"
	msgs[23].FromName = "The Project Bot"
	remote := &fakeRemote{messages: msgs}
	svc := NewListService(remote, ListOptions{PageSize: 10, SearchBatchSize: 8, MaxSearch: 100})
	ctx := context.Background()

	page, err := svc.SetFilter(ctx, "PROJECT")
	assert.NoError(t, err)
	assert.Equal(t, 3, page.Count())
	assert.False(t, page.HasMore(), "exhausted remote leaves no continuation token")
	assertDense(t, page)

	stats := svc.LastSearch()
	assert.True(t, stats.Exhausted)
	assert.False(t, stats.CeilingHit)
	assert.Equal(t, 30, stats.Scanned)
	assert.Equal(t, 3, stats.Matched)
}

func TestListService_Filter_CeilingStopsScanExactly(t *testing.T) {
	// 500 messages, matches too rare to reach the target before the
	// 200-message ceiling: the scan stops at exactly 200 and keeps the
	// continuation token so the user can push further explicitly.
	msgs := makeMessages(500)
	msgs[3].Subject = "needle one"
	msgs[150].Subject = "needle two"
	remote := &fakeRemote{messages: msgs, bodies: map[string]string{}}
	svc := NewListService(remote, ListOptions{PageSize: 10, SearchBatchSize: 50, MaxSearch: 200})
	ctx := context.Background()

	page, err := svc.SetFilter(ctx, "needle")
	assert.NoError(t, err)
	assert.Equal(t, 2, page.Count())
	assert.True(t, page.HasMore(), "ceiling leaves the token in place")

	stats := svc.LastSearch()
	assert.True(t, stats.CeilingHit)
	assert.False(t, stats.Exhausted)
	assert.Equal(t, 200, stats.Scanned, "scan stops at exactly the ceiling")
}

func TestListService_Filter_CeilingNotAlignedToBatch(t *testing.T) {
	// Ceiling 70 with batch 50: the second batch must be clamped to 20.
	remote := &fakeRemote{messages: makeMessages(500)}
	svc := NewListService(remote, ListOptions{PageSize: 5, SearchBatchSize: 50, MaxSearch: 70})

	_, err := svc.SetFilter(context.Background(), "no such text")
	assert.NoError(t, err)
	assert.Equal(t, 70, svc.LastSearch().Scanned)
	assert.True(t, svc.LastSearch().CeilingHit)
}

func TestListService_Filter_MatchesBodyText(t *testing.T) {
	msgs := makeMessages(10)
	remote := &fakeRemote{
		messages: msgs,
		bodies:   map[string]string{"id007": "please review the invoice attached"},
	}
	svc := NewListService(remote, ListOptions{PageSize: 5})

	page, err := svc.SetFilter(context.Background(), "Invoice")
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Count())
	assert.Equal(t, "id007", page.Items[0].ID)
}

func TestListService_Filter_PersistsAcrossFolderSwitch(t *testing.T) {
	msgs := makeMessages(20)
	msgs[2].Subject = "budget review"
	remote := &fakeRemote{messages: msgs}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.SetFilter(ctx, "budget")
	assert.NoError(t, err)
	assert.Equal(t, "budget", svc.FilterText())

	// Switching folders must re-apply the same filter from session state
	// without the caller re-supplying it.
	page, err := svc.SetFolder(ctx, mailbox.FolderJunk)
	assert.NoError(t, err)
	assert.Equal(t, "budget", svc.FilterText())
	assert.Equal(t, 1, page.Count())
	assert.Equal(t, mailbox.FolderJunk, svc.Folder())

	// Clearing is explicit.
	page, err = svc.ClearFilter(ctx)
	assert.NoError(t, err)
	assert.Empty(t, svc.FilterText())
	assert.Equal(t, 10, page.Count())
}

func TestListService_SetFilter_EmptyRejected(t *testing.T) {
	svc := NewListService(&fakeRemote{}, ListOptions{})
	_, err := svc.SetFilter(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListService_ResolveIndices(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(5)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	_, err := svc.LoadInitial(context.Background())
	assert.NoError(t, err)

	// Invalid indices are reported individually; valid ones still resolve.
	ids, invalid := svc.ResolveIndices([]int{1, 3, 7, 9})
	assert.Equal(t, []string{"id001", "id003"}, ids)
	assert.Equal(t, []int{7, 9}, invalid)
}

func TestListService_ApplyRemoval_BackfillBound(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(60)}
	svc := NewListService(remote, ListOptions{PageSize: 20})
	ctx := context.Background()

	page, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 20, page.Count())

	// Removing 2 from a 20-item page with more data available backfills
	// at most 2, back to the original size.
	page, err = svc.ApplyRemoval(ctx, []string{"id003", "id015"})
	assert.NoError(t, err)
	assert.Equal(t, 20, page.Count())
	assertDense(t, page)
	assert.NotContains(t, page.IDs(), "id003")
	assert.NotContains(t, page.IDs(), "id015")

	// Backfilled items continue from the server cursor.
	assert.Equal(t, "id021", page.Items[18].ID)
	assert.Equal(t, "id022", page.Items[19].ID)
}

func TestListService_ApplyRemoval_RemoteExhausted(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(10)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)

	// No continuation token: removal shrinks the page, stays dense.
	page, err := svc.ApplyRemoval(ctx, []string{"id001", "id010"})
	assert.NoError(t, err)
	assert.Equal(t, 8, page.Count())
	assertDense(t, page)
	assert.Equal(t, "id002", page.Items[0].ID)
}

func TestListService_ApplyRemoval_BackfillFailureCommitsRemovals(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(60)}
	svc := NewListService(remote, ListOptions{PageSize: 20})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)

	// Fail the backfill fetch only.
	remote.fetchErr = errors.New("remote down")
	remote.failAfterFetch = remote.fetchCalls

	page, err := svc.ApplyRemoval(ctx, []string{"id005"})
	assert.Error(t, err)
	assert.NotNil(t, page)
	assert.Equal(t, 19, page.Count(), "removal commits even when backfill fails")
	assertDense(t, page)
	assert.NotContains(t, page.IDs(), "id005")
	assert.Equal(t, page, svc.Page())
}

func TestListService_ApplyRemoval_UnknownIDsLeavePageUntouched(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(10)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	before, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	beforeIDs := before.IDs()
	beforeToken := before.ContinuationToken

	// A cancelled or entirely-failed bulk action applies no removal; the
	// page must re-display exactly as before.
	page, err := svc.ApplyRemoval(ctx, []string{"not-on-page"})
	assert.NoError(t, err)
	assert.Equal(t, beforeIDs, page.IDs())
	assert.Equal(t, beforeToken, page.ContinuationToken)
	for i, item := range page.Items {
		assert.Equal(t, i+1, item.Index)
	}
}

func TestListService_ApplyRemoval_FilteredBackfillPath(t *testing.T) {
	// Under an active filter, backfill must route through the bounded
	// search, not the plain fetch.
	msgs := makeMessages(100)
	for i := 0; i < 30; i++ {
		msgs[i*3].Subject = fmt.Sprintf("report %d", i)
	}
	remote := &fakeRemote{messages: msgs}
	svc := NewListService(remote, ListOptions{PageSize: 5, SearchBatchSize: 10, MaxSearch: 200})
	ctx := context.Background()

	page, err := svc.SetFilter(ctx, "report")
	assert.NoError(t, err)
	assert.Equal(t, 5, page.Count())
	plainFetches := remote.fetchCalls - remote.bodyFetchCalls

	page, err = svc.ApplyRemoval(ctx, []string{page.Items[0].ID})
	assert.NoError(t, err)
	assert.Equal(t, 5, page.Count())
	assertDense(t, page)
	assert.Equal(t, plainFetches, remote.fetchCalls-remote.bodyFetchCalls,
		"no plain fetch may happen while the filter is active")
	for _, item := range page.Items {
		assert.Contains(t, item.Subject, "report")
	}
}

func TestListService_MarkRead_UpdatesLocalFlag(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(5)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	assert.True(t, svc.Page().Items[1].Unread)

	assert.NoError(t, svc.MarkRead(ctx, 2))
	assert.False(t, svc.Page().Items[1].Unread)

	err = svc.MarkRead(ctx, 99)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestListService_IndexDensityInvariantAcrossSequence(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(80)}
	svc := NewListService(remote, ListOptions{PageSize: 15})
	ctx := context.Background()

	page, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)
	assertDense(t, page)

	for step := 0; step < 4; step++ {
		_, err := svc.LoadMore(ctx)
		if errors.Is(err, ErrNoMoreMessages) {
			break
		}
		assert.NoError(t, err)
		assertDense(t, svc.Page())

		// Remove the first and last visible items each round.
		ids := svc.Page().IDs()
		page, err = svc.ApplyRemoval(ctx, []string{ids[0], ids[len(ids)-1]})
		assert.NoError(t, err)
		assertDense(t, page)
	}
}

func TestListService_SetFolder_FailureRestoresPreviousFolder(t *testing.T) {
	remote := &fakeRemote{messages: makeMessages(5)}
	svc := NewListService(remote, ListOptions{PageSize: 10})
	ctx := context.Background()

	_, err := svc.LoadInitial(ctx)
	assert.NoError(t, err)

	remote.fetchErr = errors.New("remote down")
	_, err = svc.SetFolder(ctx, mailbox.FolderSent)
	assert.Error(t, err)
	assert.Equal(t, mailbox.FolderInbox, svc.Folder())
	assert.Equal(t, 5, svc.Page().Count(), "previous page survives the failed switch")
}
