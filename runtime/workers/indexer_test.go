package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/repositories"
	"campus-sync/search"

	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

func Test_Indexer_Follows_User_Collection(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	log := slog.Default()
	store := docstore.New(badgerDB, log)
	defer store.Close()
	users := repositories.NewUserRepository(store, log)
	directory := search.NewDirectory(blugeWriter, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	indexer := NewDirectoryIndexer(store, directory, log)
	done := make(chan struct{})
	go func() {
		_ = indexer.Run(ctx)
		close(done)
	}()
	// Let the worker register its subscription before the first write.
	time.Sleep(100 * time.Millisecond)

	// When a profile lands in the store
	req.NoError(users.Create(ctx, domain.User{ID: "u1", Name: "Anna", Surname: "Petrova"}))

	// Then it becomes findable without an explicit reindex
	req.Eventually(func() bool {
		ids, err := directory.Search(context.Background(), []string{"petrova"}, search.Filters{}, "")
		return err == nil && len(ids) == 1
	}, 3*time.Second, 50*time.Millisecond)

	// And a profile edit replaces the entry
	req.NoError(users.Mutate(ctx, "u1", func(u *domain.User) error {
		u.Surname = "Ivanova"
		return nil
	}))
	req.Eventually(func() bool {
		ids, err := directory.Search(context.Background(), []string{"ivanova"}, search.Filters{}, "")
		return err == nil && len(ids) == 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("indexer did not stop on context cancel")
	}
}

func Test_Indexer_Removes_Deleted_Users(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	log := slog.Default()
	store := docstore.New(badgerDB, log)
	defer store.Close()
	users := repositories.NewUserRepository(store, log)
	directory := search.NewDirectory(blugeWriter, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	indexer := NewDirectoryIndexer(store, directory, log)
	go func() { _ = indexer.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	req.NoError(users.Create(ctx, domain.User{ID: "u1", Name: "Anna"}))
	req.Eventually(func() bool {
		ids, err := directory.Search(context.Background(), []string{"anna"}, search.Filters{}, "")
		return err == nil && len(ids) == 1
	}, 3*time.Second, 50*time.Millisecond)

	req.NoError(store.Delete(ctx, repositories.UserPath("u1")))
	req.Eventually(func() bool {
		ids, err := directory.Search(context.Background(), []string{"anna"}, search.Filters{}, "")
		return err == nil && len(ids) == 0
	}, 3*time.Second, 50*time.Millisecond)
}
