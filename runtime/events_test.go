package runtime

import (
	"log/slog"
	"testing"
	"time"

	"campus-sync/contract"
	"campus-sync/domain/event"

	"github.com/stretchr/testify/require"
)

func Test_Decode_User_Snapshot(t *testing.T) {
	req := require.New(t)

	ev, ok := DecodeSnapshot(contract.Snapshot{
		Path: "users/alice",
		Data: contract.Document{
			"id": "alice", "name": "Alice",
			"friends": []any{}, "friendRequests": []any{"bob"},
		},
	}, slog.Default())
	req.True(ok)

	changed, isUser := ev.(event.UserChanged)
	req.True(isUser)
	req.Equal("alice", changed.User.ID)
	req.Equal([]string{"bob"}, changed.User.FriendRequests)
}

func Test_Decode_Deleted_User(t *testing.T) {
	req := require.New(t)

	ev, ok := DecodeSnapshot(contract.Snapshot{Path: "users/alice", Deleted: true}, slog.Default())
	req.True(ok)
	req.Equal(event.UserDeleted{UserID: "alice"}, ev)
}

func Test_Decode_Chat_And_Message_Snapshots(t *testing.T) {
	req := require.New(t)
	at := time.Now().UTC().Format(time.RFC3339Nano)

	ev, ok := DecodeSnapshot(contract.Snapshot{
		Path: "chats/c1",
		Data: contract.Document{
			"id": "c1", "createdBy": "alice",
			"members": []any{"alice"}, "admins": []any{"alice"},
		},
	}, slog.Default())
	req.True(ok)
	_, isChat := ev.(event.ChatChanged)
	req.True(isChat)

	ev, ok = DecodeSnapshot(contract.Snapshot{
		Path: "chats/c1/messages/0000000000000000001-01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Data: contract.Document{
			"id": "01ARZ3NDEKTSV4RRFFQ69G5FAV", "chatId": "c1", "senderId": "alice",
			"text": "hi", "timestamp": at,
		},
	}, slog.Default())
	req.True(ok)
	appended, isMessage := ev.(event.MessageAppended)
	req.True(isMessage)
	req.Equal("hi", appended.Message.Text)
}

func Test_Decode_Malformed_Snapshot_Is_Skipped(t *testing.T) {
	req := require.New(t)

	_, ok := DecodeSnapshot(contract.Snapshot{
		Path: "users/broken",
		Data: contract.Document{"id": "broken"},
	}, slog.Default())
	req.False(ok)
}

func Test_Decode_Foreign_Path_Is_Skipped(t *testing.T) {
	req := require.New(t)

	_, ok := DecodeSnapshot(contract.Snapshot{Path: "blobs/x", Data: contract.Document{}}, slog.Default())
	req.False(ok)
}
