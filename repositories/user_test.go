package repositories

import (
	"context"
	"log/slog"
	"testing"

	"campus-sync/contract"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := docstore.New(db, slog.Default())
	t.Cleanup(store.Close)
	return store
}

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())
	ctx := context.Background()

	user := domain.User{
		ID:      "alice",
		Name:    "Alice",
		Surname: "Martin",
		Course:  "2",
		College: "Mathematics",
	}
	req.NoError(repository.Create(ctx, user))

	fetched, err := repository.Get(ctx, "alice")
	req.NoError(err)
	req.Equal("Alice Martin", fetched.DisplayName())
	req.Equal("2", fetched.Course)
	// Absent sets come back as empty slices, never nil
	req.NotNil(fetched.Friends)
	req.NotNil(fetched.FriendRequests)
}

func Test_Get_Rejects_Document_Missing_Name(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())
	ctx := context.Background()

	// Given a document written around the schema boundary
	req.NoError(store.Set(ctx, UserPath("broken"), contract.Document{
		"id":             "broken",
		"friends":        []string{},
		"friendRequests": []string{},
	}))

	_, err := repository.Get(ctx, "broken")
	req.ErrorIs(err, errors.ErrInvalidDocument)
}

func Test_Create_Rejects_Self_Reference(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())

	err := repository.Create(context.Background(), domain.User{
		ID:      "alice",
		Name:    "Alice",
		Friends: []string{"alice"},
	})
	req.ErrorIs(err, errors.ErrInvalidDocument)
}

func Test_Mutate_Missing_User(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())

	err := repository.Mutate(context.Background(), "nobody", func(u *domain.User) error {
		u.Name = "x"
		return nil
	})
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Mutate_Error_Leaves_User_Untouched(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())
	ctx := context.Background()

	req.NoError(repository.Create(ctx, domain.User{ID: "alice", Name: "Alice"}))

	err := repository.Mutate(ctx, "alice", func(u *domain.User) error {
		u.Name = "broken"
		return errors.ErrForbidden
	})
	req.ErrorIs(err, errors.ErrForbidden)

	fetched, err := repository.Get(ctx, "alice")
	req.NoError(err)
	req.Equal("Alice", fetched.Name)
}

func Test_All_Skips_Malformed_Documents(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	repository := NewUserRepository(store, slog.Default())
	ctx := context.Background()

	req.NoError(repository.Create(ctx, domain.User{ID: "alice", Name: "Alice"}))
	req.NoError(store.Set(ctx, UserPath("junk"), contract.Document{"id": "junk"}))

	users, err := repository.All(ctx)
	req.NoError(err)
	req.Len(users, 1)
	req.Equal("alice", users[0].ID)
}
