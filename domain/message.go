// Package domain contains core concepts of the campus social system.
// This file defines Message events and their ordering rules.
// Messages are immutable once appended.
package domain

import (
	"sort"
	"time"
)

type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment references an uploaded blob by its stable URL.
type Attachment struct {
	URL  string
	Kind AttachmentKind
	Name string
}

// Message is an immutable chat log entry. ID is a client-generated ULID,
// time-based and unique within the chat. Text may be empty only when an
// attachment is present.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	Text       string
	Lang       string
	Timestamp  time.Time
	Attachment *Attachment
}

// Before implements the display order of the log: timestamp ascending with
// the id as tiebreak. ULIDs sort lexicographically, so ties within one
// instant stay deterministic regardless of store commit order.
func (m Message) Before(other Message) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return m.ID < other.ID
}

// SortMessages orders a log for display. Ordering is always computed
// client-side; the store only guarantees per-document durability.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}
