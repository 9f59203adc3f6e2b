// Package membership implements the chat lifecycle and the role rules over
// it. Every permission check runs inside the same store transaction as the
// write it guards, so a snapshot raced by another admin can never let a
// forbidden change through.
package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-sync/contract"
	"campus-sync/domain"
	"campus-sync/errors"
	"campus-sync/repositories"

	"github.com/samber/lo"
)

type Engine struct {
	chats repositories.IChatRepository
	users repositories.IUserRepository
	blobs contract.BlobStore
	log   *slog.Logger
}

func NewEngine(chats repositories.IChatRepository, users repositories.IUserRepository,
	blobs contract.BlobStore, log *slog.Logger) *Engine {
	return &Engine{chats: chats, users: users, blobs: blobs, log: log}
}

// CreateChat produces a chat owned by owner, with the owner joined to the
// initial members and as the only admin. A photo, when given, is uploaded
// before the chat document is written: an upload failure fails the whole
// creation and leaves no record behind.
func (e *Engine) CreateChat(ctx context.Context, owner, name string, initialMembers []string, photo []byte) (domain.Chat, error) {
	if _, err := e.users.Get(ctx, owner); err != nil {
		return domain.Chat{}, err
	}

	chat := domain.Chat{
		Name:      name,
		CreatedBy: owner,
		CreatedAt: time.Now().UTC(),
		Members:   lo.Uniq(append([]string{owner}, initialMembers...)),
		Admins:    []string{owner},
	}
	if photo != nil {
		url, err := e.uploadPhoto(ctx, "chat-avatars/"+owner+"-"+fmt.Sprint(chat.CreatedAt.UnixNano()), photo)
		if err != nil {
			return domain.Chat{}, err
		}
		chat.PhotoRef = url
	}

	id, err := e.chats.Create(ctx, chat)
	if err != nil {
		return domain.Chat{}, err
	}
	return e.chats.Get(ctx, id)
}

// AddMember lets an admin add userID. Adding an existing member is a
// no-op.
func (e *Engine) AddMember(ctx context.Context, actor, chatID, userID string) error {
	if _, err := e.users.Get(ctx, userID); err != nil {
		return err
	}
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		c.AddMember(userID)
		return nil
	})
}

// RemoveMember drops userID from the member set and, if present, from the
// admin set. The owner is immune regardless of who asks.
func (e *Engine) RemoveMember(ctx context.Context, actor, chatID, userID string) error {
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		if c.IsOwner(userID) {
			return fmt.Errorf("%w: chat %s", errors.ErrOwnerProtected, chatID)
		}
		c.RemoveMember(userID)
		return nil
	})
}

// PromoteAdmin grants admin to an existing member. Promoting an admin is a
// no-op.
func (e *Engine) PromoteAdmin(ctx context.Context, actor, chatID, userID string) error {
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		if !c.IsMember(userID) {
			return fmt.Errorf("%w: %s is not a member of chat %s", errors.ErrNotFound, userID, chatID)
		}
		c.Promote(userID)
		return nil
	})
}

// DemoteAdmin revokes admin from a member. The owner cannot be demoted;
// demoting a non-admin member is a no-op.
func (e *Engine) DemoteAdmin(ctx context.Context, actor, chatID, userID string) error {
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		if c.IsOwner(userID) {
			return fmt.Errorf("%w: chat %s", errors.ErrOwnerProtected, chatID)
		}
		if !c.IsMember(userID) {
			return fmt.Errorf("%w: %s is not a member of chat %s", errors.ErrNotFound, userID, chatID)
		}
		c.Demote(userID)
		return nil
	})
}

func (e *Engine) RenameChat(ctx context.Context, actor, chatID, name string) error {
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		c.Name = name
		return nil
	})
}

// SetChatPhoto uploads the photo first and writes its URL after, so a
// failed upload never leaves the chat pointing at a missing blob.
func (e *Engine) SetChatPhoto(ctx context.Context, actor, chatID string, photo []byte) error {
	chat, err := e.chats.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsAdmin(actor) {
		return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
	}
	url, err := e.uploadPhoto(ctx, "chat-avatars/"+chatID, photo)
	if err != nil {
		return err
	}
	return e.chats.Mutate(ctx, chatID, func(c *domain.Chat) error {
		if !c.IsAdmin(actor) {
			return fmt.Errorf("%w: %s is not an admin of chat %s", errors.ErrForbidden, actor, chatID)
		}
		c.PhotoRef = url
		return nil
	})
}

// uploadPhoto stores the bytes and resolves the stable URL. PhotoRef
// fields always hold the URL, never the raw blob ref, matching profile
// avatars.
func (e *Engine) uploadPhoto(ctx context.Context, path string, photo []byte) (string, error) {
	ref, err := e.blobs.Upload(ctx, path, photo)
	if err != nil {
		return "", fmt.Errorf("chat photo upload failed: %w", err)
	}
	url, err := e.blobs.URL(ref)
	if err != nil {
		return "", fmt.Errorf("chat photo upload failed: %w", err)
	}
	return url, nil
}

// DeleteChat destroys the chat document and its entire message log.
// Owner-only and irreversible.
func (e *Engine) DeleteChat(ctx context.Context, actor, chatID string) error {
	chat, err := e.chats.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsOwner(actor) {
		return fmt.Errorf("%w: only the owner may delete chat %s", errors.ErrForbidden, chatID)
	}
	return e.chats.Delete(ctx, chatID)
}

// FindOrCreateDirectChat returns the single 1:1 thread between two users,
// creating it when absent. The id is derived from the sorted pair, so both
// argument orders and racing calls resolve to the same chat.
func (e *Engine) FindOrCreateDirectChat(ctx context.Context, selfID, otherID string) (domain.Chat, error) {
	if selfID == otherID {
		return domain.Chat{}, fmt.Errorf("%w: direct chat needs two users", errors.ErrSelfReference)
	}
	if _, err := e.users.Get(ctx, selfID); err != nil {
		return domain.Chat{}, err
	}
	if _, err := e.users.Get(ctx, otherID); err != nil {
		return domain.Chat{}, err
	}

	id := domain.DirectChatID(selfID, otherID)
	first, second := selfID, otherID
	if second < first {
		first, second = second, first
	}
	chat := domain.Chat{
		ID:        id,
		CreatedBy: first,
		CreatedAt: time.Now().UTC(),
		Members:   []string{first, second},
		Admins:    []string{first, second},
		Direct:    true,
	}
	if err := e.chats.EnsureDirect(ctx, chat); err != nil {
		return domain.Chat{}, err
	}
	return e.chats.Get(ctx, id)
}
