// Package messagelog implements ordered, append-safe message storage.
//
// Every message lives in its own store document, so two senders racing on
// the same chat commit independent writes: there is no shared array to
// overwrite and no lost update. Display order is always recomputed
// client-side as (timestamp, id).
package messagelog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"campus-sync/blob"
	"campus-sync/contract"
	"campus-sync/domain"
	"campus-sync/errors"
	"campus-sync/moderation"
	"campus-sync/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/oklog/ulid/v2"
)

type Coordinator struct {
	messages repositories.IMessageRepository
	chats    repositories.IChatRepository
	blobs    contract.BlobStore
	censor   *moderation.Censor // nil disables moderation
	log      *slog.Logger

	mu        sync.Mutex
	lastStamp map[string]time.Time
}

func NewCoordinator(messages repositories.IMessageRepository, chats repositories.IChatRepository,
	blobs contract.BlobStore, censor *moderation.Censor, log *slog.Logger) *Coordinator {
	return &Coordinator{
		messages:  messages,
		chats:     chats,
		blobs:     blobs,
		censor:    censor,
		log:       log,
		lastStamp: make(map[string]time.Time),
	}
}

// Send appends a message from sender to the chat's log. Only members may
// post. When attachment bytes are given they are uploaded before anything
// is written: a failed upload fails the whole send and the log is
// untouched (the attachment policy is atomic, for messages and profile
// photos alike).
func (c *Coordinator) Send(ctx context.Context, chatID, senderID, text string, attachment []byte, attachmentName string) (domain.Message, error) {
	if text == "" && attachment == nil {
		return domain.Message{}, fmt.Errorf("%w: chat %s", errors.ErrEmptyMessage, chatID)
	}
	chat, err := c.chats.Get(ctx, chatID)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.IsMember(senderID) {
		return domain.Message{}, fmt.Errorf("%w: %s is not a member of chat %s", errors.ErrForbidden, senderID, chatID)
	}

	message := domain.Message{
		ID:        ulid.Make().String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      c.moderate(text),
		Lang:      detectLang(text),
		Timestamp: c.stamp(chatID),
	}

	if attachment != nil {
		ref, err := c.blobs.Upload(ctx, "attachments/"+chatID+"/"+message.ID+"-"+attachmentName, attachment)
		if err != nil {
			return domain.Message{}, fmt.Errorf("attachment upload failed, message not sent: %w", err)
		}
		url, err := c.blobs.URL(ref)
		if err != nil {
			return domain.Message{}, fmt.Errorf("attachment upload failed, message not sent: %w", err)
		}
		message.Attachment = &domain.Attachment{
			URL:  url,
			Kind: blob.DetectKind(attachment),
			Name: attachmentName,
		}
	}

	if err := c.messages.Append(ctx, message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Messages returns the chat's log in display order.
func (c *Coordinator) Messages(ctx context.Context, chatID string) ([]domain.Message, error) {
	return c.messages.List(ctx, chatID)
}

// stamp issues a strictly increasing client timestamp per chat. The wall
// clock can stall or step backwards; a repeated reading is bumped by one
// nanosecond past the previous stamp.
func (c *Coordinator) stamp(chatID string) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if last, ok := c.lastStamp[chatID]; ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	c.lastStamp[chatID] = now
	return now
}

func (c *Coordinator) moderate(text string) string {
	if c.censor == nil || text == "" {
		return text
	}
	return c.censor.Apply(text)
}

// detectLang tags the message with its probable language for downstream
// search and analytics. Unreliable detections are left untagged.
func detectLang(text string) string {
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}
