//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"campus-sync/contract"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

func MessageCollection(chatID string) string {
	return ChatCollection + "/" + chatID + "/messages"
}

// MessagePath places every message in its own document. The key embeds the
// zero-padded nanosecond timestamp and the ULID so that:
//  1. Prefix scans return the log chronologically (lexicographic order).
//  2. Two messages in the same instant never collide: the id disambiguates,
//     and concurrent appends are independent writes with no shared array.
func MessagePath(m domain.Message) string {
	return fmt.Sprintf("%s/%019d-%s", MessageCollection(m.ChatID), m.Timestamp.UnixNano(), m.ID)
}

func isMessagePath(path string) bool {
	return strings.Contains(path, "/messages/")
}

type IMessageRepository interface {
	Append(ctx context.Context, m domain.Message) error
	List(ctx context.Context, chatID string) ([]domain.Message, error)
}

type MessageRepository struct {
	store contract.DocumentStore
	log   *slog.Logger
}

func NewMessageRepository(store contract.DocumentStore, log *slog.Logger) *MessageRepository {
	return &MessageRepository{store: store, log: log}
}

type attachmentDoc struct {
	URL  string `json:"url" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=image document"`
	Name string `json:"name"`
}

type messageDoc struct {
	ID         string         `json:"id" validate:"required"`
	ChatID     string         `json:"chatId" validate:"required"`
	SenderID   string         `json:"senderId" validate:"required"`
	Text       string         `json:"text"`
	Lang       string         `json:"lang,omitempty"`
	Timestamp  time.Time      `json:"timestamp" validate:"required"`
	Attachment *attachmentDoc `json:"attachment,omitempty"`
}

// Append writes the message as its own document. Re-appending the same
// message is idempotent: same path, same content.
func (r *MessageRepository) Append(ctx context.Context, m domain.Message) error {
	doc, err := encodeMessage(m)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, MessagePath(m), doc)
}

// List returns the chat's full log in display order. The prefix scan is
// already chronological, but ordering is re-derived client-side so the
// contract does not depend on the key scheme.
func (r *MessageRepository) List(ctx context.Context, chatID string) ([]domain.Message, error) {
	snaps, err := r.store.Query(ctx, MessageCollection(chatID), nil)
	if err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0, len(snaps))
	for _, snap := range snaps {
		m, err := DecodeMessage(snap.Data)
		if err != nil {
			r.log.Warn("Skipping malformed message document", "path", snap.Path, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	domain.SortMessages(messages)
	return messages, nil
}

func DecodeMessage(doc contract.Document) (domain.Message, error) {
	var d messageDoc
	if err := docstore.Decode(doc, &d); err != nil {
		return domain.Message{}, err
	}
	if err := validate.Struct(d); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	if d.Text == "" && d.Attachment == nil {
		return domain.Message{}, fmt.Errorf("%w: message %s", errors.ErrEmptyMessage, d.ID)
	}
	m := domain.Message{
		ID:        d.ID,
		ChatID:    d.ChatID,
		SenderID:  d.SenderID,
		Text:      d.Text,
		Lang:      d.Lang,
		Timestamp: d.Timestamp,
	}
	if d.Attachment != nil {
		m.Attachment = &domain.Attachment{
			URL:  d.Attachment.URL,
			Kind: domain.AttachmentKind(d.Attachment.Kind),
			Name: d.Attachment.Name,
		}
	}
	return m, nil
}

func encodeMessage(m domain.Message) (contract.Document, error) {
	d := messageDoc{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Lang:      m.Lang,
		Timestamp: m.Timestamp,
	}
	if m.Attachment != nil {
		d.Attachment = &attachmentDoc{
			URL:  m.Attachment.URL,
			Kind: string(m.Attachment.Kind),
			Name: m.Attachment.Name,
		}
	}
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	if d.Text == "" && d.Attachment == nil {
		return nil, fmt.Errorf("%w: message %s", errors.ErrEmptyMessage, d.ID)
	}
	return docstore.Encode(d)
}
