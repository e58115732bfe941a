package models

import (
	"sort"
	"strings"
)

// SortOrder names how issue listings are ordered.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortPriority SortOrder = "priority"
	SortStatus   SortOrder = "status"
	SortUpdated  SortOrder = "updated"
)

// IssueFilter represents filters for listing issues
type IssueFilter struct {
	Category Category  `json:"category,omitempty"`
	Status   Status    `json:"status,omitempty"`
	Priority Priority  `json:"priority,omitempty"`
	Search   string    `json:"search,omitempty"`
	SortBy   SortOrder `json:"sortBy,omitempty"`
}

// Matches reports whether the issue passes every set criterion.
func (f IssueFilter) Matches(i *Issue) bool {
	if f.Category != "" && i.Category != f.Category {
		return false
	}
	if f.Status != "" && i.Status != f.Status {
		return false
	}
	if f.Priority != "" && i.Priority != f.Priority {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		fields := append([]string{i.Title, i.Description, i.SubmittedBy}, i.Tags...)
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// Apply returns the matching issues in the requested order. The input is not modified.
func (f IssueFilter) Apply(issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for i := range issues {
		if f.Matches(&issues[i]) {
			out = append(out, issues[i])
		}
	}

	var less func(a, b *Issue) bool
	switch f.SortBy {
	case SortOldest:
		less = func(a, b *Issue) bool { return a.SubmittedAt.Before(b.SubmittedAt) }
	case SortPriority:
		less = func(a, b *Issue) bool {
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() > b.Priority.Rank()
			}
			return a.SubmittedAt.After(b.SubmittedAt)
		}
	case SortStatus:
		less = func(a, b *Issue) bool {
			if a.Status.Rank() != b.Status.Rank() {
				return a.Status.Rank() < b.Status.Rank()
			}
			return a.SubmittedAt.After(b.SubmittedAt)
		}
	case SortUpdated:
		less = func(a, b *Issue) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	default:
		less = func(a, b *Issue) bool { return a.SubmittedAt.After(b.SubmittedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}
