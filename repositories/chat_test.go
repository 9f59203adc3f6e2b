package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"campus-sync/domain"
	"campus-sync/errors"

	"github.com/stretchr/testify/require"
)

func groupChat(owner string, members ...string) domain.Chat {
	return domain.Chat{
		Name:      "study group",
		CreatedBy: owner,
		CreatedAt: time.Now().UTC(),
		Members:   append([]string{owner}, members...),
		Admins:    []string{owner},
	}
}

func Test_Create_Assigns_And_Stamps_ID(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewChatRepository(store, slog.Default())
	ctx := context.Background()

	id, err := repository.Create(ctx, groupChat("alice", "bob"))
	req.NoError(err)
	req.NotEmpty(id)

	chat, err := repository.Get(ctx, id)
	req.NoError(err)
	req.Equal(id, chat.ID)
	req.Equal([]string{"alice", "bob"}, chat.Members)
	req.Equal([]string{"alice"}, chat.Admins)
}

func Test_Create_Rejects_Owner_Outside_Members(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewChatRepository(store, slog.Default())

	_, err := repository.Create(context.Background(), domain.Chat{
		CreatedBy: "alice",
		Members:   []string{"bob"},
		Admins:    []string{"alice"},
	})
	req.ErrorIs(err, errors.ErrInvalidDocument)
}

func Test_Create_Rejects_Admin_Outside_Members(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewChatRepository(store, slog.Default())

	_, err := repository.Create(context.Background(), domain.Chat{
		CreatedBy: "alice",
		Members:   []string{"alice"},
		Admins:    []string{"alice", "bob"},
	})
	req.ErrorIs(err, errors.ErrInvalidDocument)
}

func Test_EnsureDirect_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewChatRepository(store, slog.Default())
	ctx := context.Background()

	id := domain.DirectChatID("alice", "bob")
	direct := domain.Chat{
		ID:        id,
		CreatedBy: "alice",
		CreatedAt: time.Now().UTC(),
		Members:   []string{"alice", "bob"},
		Admins:    []string{"alice", "bob"},
		Direct:    true,
	}
	req.NoError(repository.EnsureDirect(ctx, direct))

	// When the other side races the same creation
	loser := direct
	loser.CreatedBy = "bob"
	req.NoError(repository.EnsureDirect(ctx, loser))

	chat, err := repository.Get(ctx, id)
	req.NoError(err)
	req.Equal("alice", chat.CreatedBy)
	req.True(chat.Direct)
}

func Test_Delete_Removes_Message_Subcollection(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	chats := NewChatRepository(store, slog.Default())
	messages := NewMessageRepository(store, slog.Default())
	ctx := context.Background()

	id, err := chats.Create(ctx, groupChat("alice", "bob"))
	req.NoError(err)
	req.NoError(messages.Append(ctx, domain.Message{
		ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", ChatID: id, SenderID: "alice",
		Text: "hello", Timestamp: time.Now().UTC(),
	}))

	req.NoError(chats.Delete(ctx, id))

	_, err = chats.Get(ctx, id)
	req.ErrorIs(err, errors.ErrNotFound)
	remaining, err := messages.List(ctx, id)
	req.NoError(err)
	req.Empty(remaining)
}

func Test_ForMember_Filters_Chats_And_Ignores_Messages(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	chats := NewChatRepository(store, slog.Default())
	messages := NewMessageRepository(store, slog.Default())
	ctx := context.Background()

	withBob, err := chats.Create(ctx, groupChat("alice", "bob"))
	req.NoError(err)
	_, err = chats.Create(ctx, groupChat("alice", "clara"))
	req.NoError(err)
	// A message document lives under the chats/ prefix but is not a chat
	req.NoError(messages.Append(ctx, domain.Message{
		ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", ChatID: withBob, SenderID: "bob",
		Text: "hi", Timestamp: time.Now().UTC(),
	}))

	list, err := chats.ForMember(ctx, "bob")
	req.NoError(err)
	req.Len(list, 1)
	req.Equal(withBob, list[0].ID)
}
