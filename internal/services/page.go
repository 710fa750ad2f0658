package services

// MessagePage is the ordered, 1-based-indexed view of what is currently
// listed, plus the continuation token for fetching more. Index values
// are always exactly 1..N; every mutation reindexes before returning.
type MessagePage struct {
	FolderID          string
	Items             []*MessageSummary
	ContinuationToken string

	// TargetSize is the page size at initial load; removals backfill
	// toward it but never beyond.
	TargetSize int
}

func newMessagePage(folderID string, targetSize int) *MessagePage {
	return &MessagePage{FolderID: folderID, TargetSize: targetSize}
}

// Count returns the number of items on the page.
func (p *MessagePage) Count() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// HasMore reports whether the remote side advertised further pages.
func (p *MessagePage) HasMore() bool {
	return p != nil && p.ContinuationToken != ""
}

// ByIndex returns the item at a 1-based index, or nil when out of range.
func (p *MessagePage) ByIndex(index int) *MessageSummary {
	if p == nil || index < 1 || index > len(p.Items) {
		return nil
	}
	return p.Items[index-1]
}

// IDs returns the item ids in page order.
func (p *MessagePage) IDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

// append adds items, skipping ids already present, and reindexes.
func (p *MessagePage) append(items []*MessageSummary) []*MessageSummary {
	present := make(map[string]bool, len(p.Items))
	for _, item := range p.Items {
		present[item.ID] = true
	}
	var added []*MessageSummary
	for _, item := range items {
		if present[item.ID] {
			continue
		}
		present[item.ID] = true
		p.Items = append(p.Items, item)
		added = append(added, item)
	}
	p.reindex()
	return added
}

// remove drops every item whose id is in the set, reindexes the rest in
// their existing relative order, and returns how many were dropped.
func (p *MessagePage) remove(ids map[string]bool) int {
	kept := p.Items[:0]
	removed := 0
	for _, item := range p.Items {
		if ids[item.ID] {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	p.Items = kept
	p.reindex()
	return removed
}

// reindex restores the dense 1..N index sequence.
func (p *MessagePage) reindex() {
	for i, item := range p.Items {
		item.Index = i + 1
	}
}

// clone returns a deep copy, used to keep mutations atomic: callers
// build the next state on a copy and swap it in only on success.
func (p *MessagePage) clone() *MessagePage {
	if p == nil {
		return nil
	}
	cp := &MessagePage{
		FolderID:          p.FolderID,
		ContinuationToken: p.ContinuationToken,
		TargetSize:        p.TargetSize,
		Items:             make([]*MessageSummary, len(p.Items)),
	}
	for i, item := range p.Items {
		dup := *item
		cp.Items[i] = &dup
	}
	return cp
}
