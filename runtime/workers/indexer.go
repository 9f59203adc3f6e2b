package workers

import (
	"context"
	"log/slog"
	"strings"

	"campus-sync/contract"
	"campus-sync/repositories"
	"campus-sync/search"
)

const indexQueueSize = 256

// DirectoryIndexer keeps the people search index in step with the user
// collection. It watches every user document and reindexes on change,
// so a profile edit becomes findable without any explicit reindex call.
// The index trails the store by the queue depth at worst.
type DirectoryIndexer struct {
	store     contract.DocumentStore
	directory *search.Directory
	log       *slog.Logger
}

func NewDirectoryIndexer(store contract.DocumentStore, directory *search.Directory, log *slog.Logger) *DirectoryIndexer {
	return &DirectoryIndexer{store: store, directory: directory, log: log}
}

func (w *DirectoryIndexer) Run(ctx context.Context) error {
	snaps := make(chan contract.Snapshot, indexQueueSize)
	cancel := w.store.Subscribe(repositories.UserCollection+"/", func(snap contract.Snapshot) {
		select {
		case snaps <- snap:
		default:
			w.log.Warn("User index queue full, dropping snapshot", "path", snap.Path)
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-snaps:
			w.apply(snap)
		}
	}
}

func (w *DirectoryIndexer) apply(snap contract.Snapshot) {
	id := strings.TrimPrefix(snap.Path, repositories.UserCollection+"/")
	if snap.Deleted {
		if err := w.directory.Remove(id); err != nil {
			w.log.Error("Removing user from search index", "user", id, "error", err)
		}
		return
	}
	user, err := repositories.DecodeUser(snap.Data)
	if err != nil {
		w.log.Warn("Skipping unindexable user document", "path", snap.Path, "error", err)
		return
	}
	if err := w.directory.Index(user); err != nil {
		w.log.Error("Indexing user", "user", id, "error", err)
	}
}
