package models

import "time"

// ChatMessage is one entry in an issue's conversation thread.
type ChatMessage struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	// IsSystem marks automated notices such as status changes.
	IsSystem bool `json:"isSystem"`
}

// MessageMap holds every thread keyed by issue id. Threads are append-only.
type MessageMap map[string][]ChatMessage

// Clone copies the map and each thread.
func (m MessageMap) Clone() MessageMap {
	out := make(MessageMap, len(m))
	for id, thread := range m {
		out[id] = append([]ChatMessage(nil), thread...)
	}
	return out
}
