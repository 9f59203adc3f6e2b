//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"campus-sync/contract"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const ChatCollection = "chats"

func ChatPath(id string) string { return ChatCollection + "/" + id }

type IChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) (string, error)
	EnsureDirect(ctx context.Context, chat domain.Chat) error
	Get(ctx context.Context, id string) (domain.Chat, error)
	Mutate(ctx context.Context, id string, fn func(*domain.Chat) error) error
	Delete(ctx context.Context, id string) error
	ForMember(ctx context.Context, userID string) ([]domain.Chat, error)
}

type ChatRepository struct {
	store contract.DocumentStore
	log   *slog.Logger
}

func NewChatRepository(store contract.DocumentStore, log *slog.Logger) *ChatRepository {
	return &ChatRepository{store: store, log: log}
}

type chatDoc struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name"`
	PhotoRef  string    `json:"photoRef,omitempty"`
	CreatedBy string    `json:"createdBy" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []string  `json:"members" validate:"min=1"`
	Admins    []string  `json:"admins" validate:"min=1"`
	Direct    bool      `json:"direct,omitempty"`
}

// Create stores a new group chat under a fresh id and returns it. The id
// is picked and stamped by the store's AddDoc.
func (r *ChatRepository) Create(ctx context.Context, chat domain.Chat) (string, error) {
	doc, err := encodeNewChat(chat)
	if err != nil {
		return "", err
	}
	return r.store.AddDoc(ctx, ChatCollection, doc)
}

// EnsureDirect creates the deterministic 1:1 chat document unless it
// already exists. Losing a creation race is indistinguishable from finding
// an existing thread: both sides end up with the same chat id.
func (r *ChatRepository) EnsureDirect(ctx context.Context, chat domain.Chat) error {
	doc, err := encodeChat(chat)
	if err != nil {
		return err
	}
	return r.store.Mutate(ctx, ChatPath(chat.ID), func(existing contract.Document) (contract.Document, error) {
		if existing != nil {
			return nil, nil
		}
		return doc, nil
	})
}

func (r *ChatRepository) Get(ctx context.Context, id string) (domain.Chat, error) {
	doc, err := r.store.Get(ctx, ChatPath(id))
	if err != nil {
		return domain.Chat{}, err
	}
	return DecodeChat(doc)
}

func (r *ChatRepository) Mutate(ctx context.Context, id string, fn func(*domain.Chat) error) error {
	return r.store.Mutate(ctx, ChatPath(id), func(doc contract.Document) (contract.Document, error) {
		if doc == nil {
			return nil, fmt.Errorf("%w: chat %s", errors.ErrNotFound, id)
		}
		chat, err := DecodeChat(doc)
		if err != nil {
			return nil, err
		}
		if err := fn(&chat); err != nil {
			return nil, err
		}
		return encodeChat(chat)
	})
}

// Delete removes the chat document and its whole message sub-collection.
// Irreversible: the log is gone.
func (r *ChatRepository) Delete(ctx context.Context, id string) error {
	messages, err := r.store.Query(ctx, MessageCollection(id), nil)
	if err != nil {
		return err
	}
	for _, snap := range messages {
		if err := r.store.Delete(ctx, snap.Path); err != nil {
			return err
		}
	}
	return r.store.Delete(ctx, ChatPath(id))
}

// ForMember lists the chats userID belongs to, ordered by id.
func (r *ChatRepository) ForMember(ctx context.Context, userID string) ([]domain.Chat, error) {
	snaps, err := r.store.Query(ctx, ChatCollection, func(path string, doc contract.Document) bool {
		return !isMessagePath(path)
	})
	if err != nil {
		return nil, err
	}
	var chats []domain.Chat
	for _, snap := range snaps {
		chat, err := DecodeChat(snap.Data)
		if err != nil {
			r.log.Warn("Skipping malformed chat document", "path", snap.Path, "error", err)
			continue
		}
		if chat.IsMember(userID) {
			chats = append(chats, chat)
		}
	}
	return chats, nil
}

func DecodeChat(doc contract.Document) (domain.Chat, error) {
	var d chatDoc
	if err := docstore.Decode(doc, &d); err != nil {
		return domain.Chat{}, err
	}
	if err := validate.Struct(d); err != nil {
		return domain.Chat{}, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	chat := domain.Chat{
		ID:        d.ID,
		Name:      d.Name,
		PhotoRef:  d.PhotoRef,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		Members:   d.Members,
		Admins:    d.Admins,
		Direct:    d.Direct,
	}
	if err := checkChatInvariants(chat); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func encodeChat(chat domain.Chat) (contract.Document, error) {
	if err := checkChatInvariants(chat); err != nil {
		return nil, err
	}
	d := chatDoc{
		ID:        chat.ID,
		Name:      chat.Name,
		PhotoRef:  chat.PhotoRef,
		CreatedBy: chat.CreatedBy,
		CreatedAt: chat.CreatedAt,
		Members:   chat.Members,
		Admins:    chat.Admins,
		Direct:    chat.Direct,
	}
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	return docstore.Encode(d)
}

// encodeNewChat is encodeChat for chats whose id has not been assigned yet
// (AddDoc stamps it on write).
func encodeNewChat(chat domain.Chat) (contract.Document, error) {
	if err := checkChatInvariants(chat); err != nil {
		return nil, err
	}
	d := chatDoc{
		Name:      chat.Name,
		PhotoRef:  chat.PhotoRef,
		CreatedBy: chat.CreatedBy,
		CreatedAt: chat.CreatedAt,
		Members:   chat.Members,
		Admins:    chat.Admins,
		Direct:    chat.Direct,
	}
	if err := validate.StructExcept(d, "ID"); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	return docstore.Encode(d)
}

// checkChatInvariants enforces the ownership rules: the owner is always a
// member and an admin, and admins form a subset of members.
func checkChatInvariants(chat domain.Chat) error {
	if !slices.Contains(chat.Members, chat.CreatedBy) || !slices.Contains(chat.Admins, chat.CreatedBy) {
		return fmt.Errorf("%w: owner %s left chat %s sets", errors.ErrInvalidDocument, chat.CreatedBy, chat.ID)
	}
	for _, admin := range chat.Admins {
		if !slices.Contains(chat.Members, admin) {
			return fmt.Errorf("%w: admin %s is not a member of chat %s", errors.ErrInvalidDocument, admin, chat.ID)
		}
	}
	return nil
}
