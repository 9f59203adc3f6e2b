package membership

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"campus-sync/blob"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"
	"campus-sync/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*Engine, repositories.IChatRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := docstore.New(db, slog.Default())
	t.Cleanup(store.Close)

	users := repositories.NewUserRepository(store, slog.Default())
	chats := repositories.NewChatRepository(store, slog.Default())
	blobs := blob.NewDiskStore(t.TempDir(), slog.Default())

	for _, id := range []string{"owner", "admin", "member", "outsider"} {
		require.NoError(t, users.Create(context.Background(), domain.User{ID: id, Name: id}))
	}
	return NewEngine(chats, users, blobs, slog.Default()), chats
}

func Test_CreateChat_Owner_Is_Member_And_Admin(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"member", "member"}, nil)
	req.NoError(err)
	req.Equal([]string{"owner", "member"}, chat.Members)
	req.Equal([]string{"owner"}, chat.Admins)
	req.Equal("owner", chat.CreatedBy)
}

func Test_CreateChat_Unknown_Owner(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)

	_, err := engine.CreateChat(context.Background(), "ghost", "x", nil, nil)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_CreateChat_Photo_Stored_As_URL(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)

	chat, err := engine.CreateChat(context.Background(), "owner", "study group", nil, []byte("photo bytes"))
	req.NoError(err)
	req.True(strings.HasPrefix(chat.PhotoRef, "file://"))
}

func Test_SetChatPhoto_Requires_Admin_And_Stores_URL(t *testing.T) {
	req := require.New(t)
	engine, chats := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"member"}, nil)
	req.NoError(err)

	err = engine.SetChatPhoto(ctx, "member", chat.ID, []byte("photo bytes"))
	req.ErrorIs(err, errors.ErrForbidden)

	req.NoError(engine.SetChatPhoto(ctx, "owner", chat.ID, []byte("photo bytes")))
	stored, err := chats.Get(ctx, chat.ID)
	req.NoError(err)
	req.True(strings.HasPrefix(stored.PhotoRef, "file://"))
}

func Test_AddMember_Requires_Admin(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"member"}, nil)
	req.NoError(err)

	err = engine.AddMember(ctx, "member", chat.ID, "outsider")
	req.ErrorIs(err, errors.ErrForbidden)

	req.NoError(engine.AddMember(ctx, "owner", chat.ID, "outsider"))
	// Adding again is a no-op
	req.NoError(engine.AddMember(ctx, "owner", chat.ID, "outsider"))
}

func Test_RemoveMember_Owner_Is_Protected(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"admin"}, nil)
	req.NoError(err)
	req.NoError(engine.PromoteAdmin(ctx, "owner", chat.ID, "admin"))

	// Even another admin cannot remove the owner
	err = engine.RemoveMember(ctx, "admin", chat.ID, "owner")
	req.ErrorIs(err, errors.ErrOwnerProtected)
}

func Test_RemoveMember_Drops_Admin_Role_Too(t *testing.T) {
	req := require.New(t)
	engine, chats := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"admin"}, nil)
	req.NoError(err)
	req.NoError(engine.PromoteAdmin(ctx, "owner", chat.ID, "admin"))

	req.NoError(engine.RemoveMember(ctx, "owner", chat.ID, "admin"))

	updated, err := chats.Get(ctx, chat.ID)
	req.NoError(err)
	req.False(updated.IsMember("admin"))
	req.False(updated.IsAdmin("admin"))
}

func Test_PromoteAdmin_Requires_Membership(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", nil, nil)
	req.NoError(err)

	err = engine.PromoteAdmin(ctx, "owner", chat.ID, "outsider")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_DemoteAdmin_Owner_Is_Protected(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"admin"}, nil)
	req.NoError(err)
	req.NoError(engine.PromoteAdmin(ctx, "owner", chat.ID, "admin"))

	err = engine.DemoteAdmin(ctx, "admin", chat.ID, "owner")
	req.ErrorIs(err, errors.ErrOwnerProtected)
}

func Test_DemoteAdmin_NonAdmin_Member_Is_Noop(t *testing.T) {
	req := require.New(t)
	engine, chats := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"member"}, nil)
	req.NoError(err)

	req.NoError(engine.DemoteAdmin(ctx, "owner", chat.ID, "member"))

	updated, err := chats.Get(ctx, chat.ID)
	req.NoError(err)
	req.True(updated.IsMember("member"))
}

func Test_RenameChat_Requires_Admin(t *testing.T) {
	req := require.New(t)
	engine, chats := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"member"}, nil)
	req.NoError(err)

	err = engine.RenameChat(ctx, "member", chat.ID, "hijacked")
	req.ErrorIs(err, errors.ErrForbidden)

	req.NoError(engine.RenameChat(ctx, "owner", chat.ID, "algebra"))
	updated, err := chats.Get(ctx, chat.ID)
	req.NoError(err)
	req.Equal("algebra", updated.Name)
}

func Test_DeleteChat_Owner_Only(t *testing.T) {
	req := require.New(t)
	engine, chats := setupEngine(t)
	ctx := context.Background()

	chat, err := engine.CreateChat(ctx, "owner", "study group", []string{"admin"}, nil)
	req.NoError(err)
	req.NoError(engine.PromoteAdmin(ctx, "owner", chat.ID, "admin"))

	// An admin who is not the owner cannot delete
	err = engine.DeleteChat(ctx, "admin", chat.ID)
	req.ErrorIs(err, errors.ErrForbidden)

	req.NoError(engine.DeleteChat(ctx, "owner", chat.ID))
	_, err = chats.Get(ctx, chat.ID)
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_FindOrCreateDirectChat_Converges(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)
	ctx := context.Background()

	first, err := engine.FindOrCreateDirectChat(ctx, "owner", "member")
	req.NoError(err)
	req.True(first.Direct)
	req.ElementsMatch([]string{"owner", "member"}, first.Members)
	req.ElementsMatch([]string{"owner", "member"}, first.Admins)

	// Same pair, either order, resolves to the same thread
	second, err := engine.FindOrCreateDirectChat(ctx, "member", "owner")
	req.NoError(err)
	req.Equal(first.ID, second.ID)
	req.Equal(first.CreatedBy, second.CreatedBy)
}

func Test_FindOrCreateDirectChat_Rejects_Self(t *testing.T) {
	req := require.New(t)
	engine, _ := setupEngine(t)

	_, err := engine.FindOrCreateDirectChat(context.Background(), "owner", "owner")
	req.ErrorIs(err, errors.ErrSelfReference)
}
