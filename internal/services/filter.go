package services

import "strings"

// FilterState holds the session's optional case-insensitive substring
// filter. It is orthogonal to folder navigation: switching folders keeps
// the filter, only an explicit set or clear changes it.
type FilterState struct {
	text string
}

// Set replaces the filter text.
func (f *FilterState) Set(text string) {
	f.text = strings.TrimSpace(text)
}

// Clear removes the filter.
func (f *FilterState) Clear() {
	f.text = ""
}

// Text returns the current filter text, empty when inactive.
func (f *FilterState) Text() string {
	return f.text
}

// Active reports whether a filter is set.
func (f *FilterState) Active() bool {
	return f.text != ""
}

// Matches reports whether any of the given fields contains the filter
// text, case-insensitively. An inactive filter matches everything.
func (f *FilterState) Matches(fields ...string) bool {
	if !f.Active() {
		return true
	}
	needle := strings.ToLower(f.text)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// session is the single process-wide view state: one active folder, one
// page, one filter. It is only ever mutated by ListServiceImpl methods.
type session struct {
	folderID string
	filter   FilterState
	page     *MessagePage
}
