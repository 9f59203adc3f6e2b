// Package docstore implements the document database abstraction over
// BadgerDB: path-keyed JSON documents, prefix queries, and live
// subscriptions delivering snapshots in commit order.
package docstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"campus-sync/contract"
	"campus-sync/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Store keeps every document under its path as the Badger key, encoded as
// JSON. Writes are serialized so that subscribers observe snapshots in the
// order the store committed them.
type Store struct {
	db  *badger.DB
	log *slog.Logger

	// wmu orders commits and their snapshot publication as one unit.
	wmu sync.Mutex

	smu    sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

func New(db *badger.DB, log *slog.Logger) *Store {
	return &Store{
		db:   db,
		log:  log,
		subs: make(map[*subscription]struct{}),
	}
}

// Close cancels every live subscription. The Badger handle stays open; its
// lifecycle belongs to the caller.
func (s *Store) Close() {
	s.smu.Lock()
	defer s.smu.Unlock()
	s.closed = true
	for sub := range s.subs {
		sub.stop()
	}
	s.subs = make(map[*subscription]struct{})
}

func (s *Store) Get(_ context.Context, path string) (contract.Document, error) {
	var doc contract.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) Set(_ context.Context, path string, doc contract.Document) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := s.write(path, doc); err != nil {
		return err
	}
	s.publish(contract.Snapshot{Path: path, Data: doc})
	return nil
}

// Update merges fields into the existing document. Setting a field to nil
// removes it. The merge happens inside one transaction, so concurrent
// updates to distinct fields of the same document do not lose each other.
func (s *Store) Update(ctx context.Context, path string, fields contract.Document) error {
	return s.Mutate(ctx, path, func(doc contract.Document) (contract.Document, error) {
		if doc == nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrNotFound, path)
		}
		for k, v := range fields {
			if v == nil {
				delete(doc, k)
				continue
			}
			doc[k] = v
		}
		return doc, nil
	})
}

// Mutate runs fn against the current document inside one Badger
// transaction. fn sees nil when the document is absent; returning a nil
// document with a nil error leaves the store untouched. An error from fn
// aborts the transaction with no side effects.
func (s *Store) Mutate(_ context.Context, path string, fn func(contract.Document) (contract.Document, error)) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var result contract.Document
	err := s.db.Update(func(txn *badger.Txn) error {
		var doc contract.Document
		item, err := txn.Get([]byte(path))
		switch {
		case stderrors.Is(err, badger.ErrKeyNotFound):
			doc = nil
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
		}

		next, err := fn(doc)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		bytes, err := json.Marshal(next)
		if err != nil {
			return err
		}
		result = next
		return txn.Set([]byte(path), bytes)
	})
	if err != nil {
		return err
	}
	if result != nil {
		s.publish(contract.Snapshot{Path: path, Data: result})
	}
	return nil
}

// AddDoc stores doc under a fresh id inside collection and returns the id.
// The generated id is stamped into the document's "id" field so that
// snapshots are self-describing.
func (s *Store) AddDoc(ctx context.Context, collection string, doc contract.Document) (string, error) {
	id := uuid.NewString()
	stamped := make(contract.Document, len(doc)+1)
	for k, v := range doc {
		stamped[k] = v
	}
	stamped["id"] = id
	if err := s.Set(ctx, collectionPath(collection)+id, stamped); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(path))
	})
	if err != nil {
		return err
	}
	s.publish(contract.Snapshot{Path: path, Deleted: true})
	return nil
}

// Query scans a collection prefix and returns the documents accepted by
// match (nil matches everything). Results come back in path order, which
// makes message scans chronological thanks to the padded-timestamp paths.
func (s *Store) Query(_ context.Context, collection string, match func(path string, doc contract.Document) bool) ([]contract.Snapshot, error) {
	prefix := []byte(collectionPath(collection))
	var out []contract.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			path := string(item.Key())
			var doc contract.Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
			if match != nil && !match(path, doc) {
				continue
			}
			out = append(out, contract.Snapshot{Path: path, Data: doc})
		}
		return nil
	})
	return out, err
}

// Subscribe registers fn for every snapshot committed under target: either
// an exact document path or a collection prefix ending in "/". Each
// subscription drains its own ordered queue on a dedicated goroutine, so a
// slow consumer never blocks commits or other subscribers.
func (s *Store) Subscribe(target string, fn func(contract.Snapshot)) contract.CancelFunc {
	sub := newSubscription(target, fn)

	s.smu.Lock()
	if s.closed {
		s.smu.Unlock()
		return func() {}
	}
	s.subs[sub] = struct{}{}
	s.smu.Unlock()

	go sub.run()

	return func() {
		s.smu.Lock()
		delete(s.subs, sub)
		s.smu.Unlock()
		sub.stop()
	}
}

func (s *Store) write(path string, doc contract.Document) error {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), bytes)
	})
}

// publish fans the snapshot out to every matching subscription queue.
// Callers hold wmu, so enqueue order equals commit order.
func (s *Store) publish(snap contract.Snapshot) {
	s.smu.Lock()
	defer s.smu.Unlock()
	for sub := range s.subs {
		if !sub.matches(snap.Path) {
			continue
		}
		snap.Target = sub.target
		sub.enqueue(snap)
	}
}

func collectionPath(collection string) string {
	if strings.HasSuffix(collection, "/") {
		return collection
	}
	return collection + "/"
}
