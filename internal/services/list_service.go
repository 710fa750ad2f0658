package services

import (
	"context"
	"fmt"
	"log"

	"github.com/apastor/mailterm/internal/mailbox"
)

// Default bounds for the client-side filter search. The remote API has
// no server-side body search, so filtering scans raw batches locally;
// the ceiling keeps one command from walking an entire large mailbox.
const (
	DefaultPageSize        = 25
	DefaultSearchBatchSize = 50
	DefaultMaxSearch       = 200
)

// ListOptions tunes the paging and filter-search bounds.
type ListOptions struct {
	PageSize        int
	SearchBatchSize int
	MaxSearch       int
}

func (o ListOptions) withDefaults() ListOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.SearchBatchSize <= 0 {
		o.SearchBatchSize = DefaultSearchBatchSize
	}
	if o.MaxSearch <= 0 {
		o.MaxSearch = DefaultMaxSearch
	}
	return o
}

// ListServiceImpl implements ListService. All mutations preserve the
// dense 1..N index invariant before returning; on any remote failure the
// previously committed page stays valid.
type ListServiceImpl struct {
	repo       MailboxRepository
	opts       ListOptions
	sess       session
	lastSearch SearchStats
	logger     *log.Logger // Optional - for debug logging
}

// NewListService creates a new list service bound to one session.
func NewListService(repo MailboxRepository, opts ListOptions) *ListServiceImpl {
	return &ListServiceImpl{
		repo: repo,
		opts: opts.withDefaults(),
		sess: session{folderID: mailbox.FolderInbox},
	}
}

// SetLogger sets the logger for debug output
func (s *ListServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Page returns the current page.
func (s *ListServiceImpl) Page() *MessagePage {
	return s.sess.page
}

// Folder returns the active folder ID.
func (s *ListServiceImpl) Folder() string {
	return s.sess.folderID
}

// FilterText returns the session filter text, empty when inactive.
func (s *ListServiceImpl) FilterText() string {
	return s.sess.filter.Text()
}

// LastSearch reports how the most recent filtered fetch ended.
func (s *ListServiceImpl) LastSearch() SearchStats {
	return s.lastSearch
}

// SetFolder switches the active folder and reloads. The session filter
// deliberately survives the switch.
func (s *ListServiceImpl) SetFolder(ctx context.Context, folderID string) (*MessagePage, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folderID cannot be empty: %w", ErrInvalidInput)
	}
	prev := s.sess.folderID
	s.sess.folderID = folderID
	page, err := s.LoadInitial(ctx)
	if err != nil {
		s.sess.folderID = prev
		return nil, err
	}
	return page, nil
}

// SetFilter replaces the session filter and reloads the current folder.
func (s *ListServiceImpl) SetFilter(ctx context.Context, text string) (*MessagePage, error) {
	prev := s.sess.filter
	s.sess.filter.Set(text)
	if !s.sess.filter.Active() {
		s.sess.filter = prev
		return nil, fmt.Errorf("filter text cannot be empty: %w", ErrInvalidInput)
	}
	page, err := s.LoadInitial(ctx)
	if err != nil {
		s.sess.filter = prev
		return nil, err
	}
	return page, nil
}

// ClearFilter removes the session filter and reloads the current folder.
func (s *ListServiceImpl) ClearFilter(ctx context.Context) (*MessagePage, error) {
	prev := s.sess.filter
	s.sess.filter.Clear()
	page, err := s.LoadInitial(ctx)
	if err != nil {
		s.sess.filter = prev
		return nil, err
	}
	return page, nil
}

// LoadInitial resets the view and fetches the first page, honoring the
// session filter. An empty result is a legitimately empty page, not an
// error. On remote failure the previous page is left untouched.
func (s *ListServiceImpl) LoadInitial(ctx context.Context) (*MessagePage, error) {
	page := newMessagePage(s.sess.folderID, s.opts.PageSize)

	items, token, err := s.fetch(ctx, int64(s.opts.PageSize), "")
	if err != nil {
		return nil, fmt.Errorf("failed to load folder %s: %w", s.sess.folderID, err)
	}
	page.append(items)
	page.ContinuationToken = token

	s.sess.page = page
	if s.logger != nil {
		s.logger.Printf("loaded %d messages from %s (more=%v)", page.Count(), s.sess.folderID, page.HasMore())
	}
	return page, nil
}

// LoadMore fetches the next batch and appends it, indices continuing
// from the current count. Without a continuation token it reports
// ErrNoMoreMessages; the page is unchanged. Returns only the newly
// appended items.
func (s *ListServiceImpl) LoadMore(ctx context.Context) ([]*MessageSummary, error) {
	page := s.sess.page
	if page == nil {
		return nil, fmt.Errorf("no page loaded: %w", ErrInvalidInput)
	}
	if !page.HasMore() {
		return nil, ErrNoMoreMessages
	}

	items, token, err := s.fetch(ctx, int64(s.opts.PageSize), page.ContinuationToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load more from %s: %w", s.sess.folderID, err)
	}

	added := page.append(items)
	page.ContinuationToken = token
	return added, nil
}

// ResolveIndices maps 1-based indices onto message ids. Out-of-range
// indices are collected individually rather than failing the batch;
// callers report each invalid index and act on the valid remainder.
func (s *ListServiceImpl) ResolveIndices(indices []int) (ids []string, invalid []int) {
	for _, index := range indices {
		if item := s.sess.page.ByIndex(index); item != nil {
			ids = append(ids, item.ID)
		} else {
			invalid = append(invalid, index)
		}
	}
	return ids, invalid
}

// MarkRead marks the message at the given index as read, remotely and
// on the local page.
func (s *ListServiceImpl) MarkRead(ctx context.Context, index int) error {
	item := s.sess.page.ByIndex(index)
	if item == nil {
		return fmt.Errorf("message number %d: %w", index, ErrMessageNotFound)
	}
	if err := s.repo.MarkRead(ctx, item.ID, true); err != nil {
		return fmt.Errorf("failed to mark message %d as read: %w", index, err)
	}
	item.Unread = false
	return nil
}

// ApplyRemoval drops the given ids from the page, restores the dense
// index sequence, and backfills from the remote up to the original page
// size, never pulling more than the number removed. The swap is atomic:
// callers either see removals plus backfill, or, when the backfill fetch
// fails, removals alone with the error returned alongside the committed
// page. Indices are dense in every returned state.
func (s *ListServiceImpl) ApplyRemoval(ctx context.Context, removedIDs []string) (*MessagePage, error) {
	page := s.sess.page
	if page == nil {
		return nil, fmt.Errorf("no page loaded: %w", ErrInvalidInput)
	}
	if len(removedIDs) == 0 {
		return page, nil
	}

	removeSet := make(map[string]bool, len(removedIDs))
	for _, id := range removedIDs {
		removeSet[id] = true
	}

	next := page.clone()
	removed := next.remove(removeSet)
	if removed == 0 {
		return page, nil
	}

	// Backfill is bounded by both the removal count and the room left
	// below the original target size.
	want := next.TargetSize - next.Count()
	if want > removed {
		want = removed
	}
	if want > 0 && next.ContinuationToken != "" {
		items, token, err := s.fetch(ctx, int64(want), next.ContinuationToken)
		if err != nil {
			// Removals commit; the failed backfill leaves no partial state.
			s.sess.page = next
			return next, fmt.Errorf("backfill failed after removal: %w", err)
		}
		next.append(items)
		next.ContinuationToken = token
	}

	s.sess.page = next
	if s.logger != nil {
		s.logger.Printf("removed %d messages, page now %d (more=%v)", removed, next.Count(), next.HasMore())
	}
	return next, nil
}

// fetch retrieves up to max summaries starting at the given token,
// routing through the bounded batch search when the filter is active.
// Server ordering is preserved verbatim on both paths.
func (s *ListServiceImpl) fetch(ctx context.Context, max int64, token string) ([]*MessageSummary, string, error) {
	if s.sess.filter.Active() {
		matches, nextToken, stats, err := s.searchFiltered(ctx, int(max), token)
		if err != nil {
			return nil, "", err
		}
		s.lastSearch = stats
		return matches, nextToken, nil
	}

	summaries, nextToken, err := s.repo.FetchPage(ctx, s.sess.folderID, max, token)
	if err != nil {
		return nil, "", err
	}
	items := make([]*MessageSummary, len(summaries))
	for i, summary := range summaries {
		items[i] = &MessageSummary{Summary: summary}
	}
	return items, nextToken, nil
}

// searchFiltered scans the folder in raw batches, matching the filter
// against subject, sender address, sender display name and body text.
// Two independent stop conditions bound the scan: the target match
// count, and a hard ceiling on raw messages scanned. Reaching the
// target stops mid-batch; the continuation token still advances to the
// batch boundary.
func (s *ListServiceImpl) searchFiltered(ctx context.Context, targetCount int, token string) ([]*MessageSummary, string, SearchStats, error) {
	var matches []*MessageSummary
	stats := SearchStats{}

	for {
		// Clamp the final batch so the scan stops at exactly MaxSearch.
		batchSize := s.opts.SearchBatchSize
		if remaining := s.opts.MaxSearch - stats.Scanned; remaining < batchSize {
			batchSize = remaining
		}

		batch, nextToken, err := s.repo.FetchPageWithBody(ctx, s.sess.folderID, int64(batchSize), token)
		if err != nil {
			return nil, "", stats, err
		}
		if len(batch) == 0 {
			stats.Exhausted = true
			token = ""
			break
		}

		for _, msg := range batch {
			if len(matches) >= targetCount {
				break
			}
			if s.sess.filter.Matches(msg.Subject, msg.FromAddress, msg.FromName, msg.Body) {
				matches = append(matches, &MessageSummary{Summary: msg.Summary})
			}
		}

		stats.Scanned += len(batch)
		token = nextToken

		if len(matches) >= targetCount {
			break
		}
		if stats.Scanned >= s.opts.MaxSearch {
			stats.CeilingHit = token != ""
			break
		}
		if token == "" {
			stats.Exhausted = true
			break
		}
	}

	if token == "" {
		stats.Exhausted = true
		stats.CeilingHit = false
	}
	stats.Matched = len(matches)
	return matches, token, stats, nil
}
