//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"campus-sync/domain/event"
	"context"
	"reflect"
)

// Document is the loosely-typed unit the store persists. Repositories decode
// it into entity structs and reject documents missing invariant fields.
type Document = map[string]any

// Snapshot is one committed state of a document, pushed to subscribers.
// Deleted snapshots carry no data.
type Snapshot struct {
	// Target is the subscription key that matched (a path or a collection
	// prefix ending in "/").
	Target  string
	Path    string
	Data    Document
	Deleted bool
}

type CancelFunc func()

// DocumentStore is the remote document database abstraction: CRUD plus live
// subscriptions. Documents are independently owned; there is no
// cross-document transaction and no cross-document ordering guarantee.
type DocumentStore interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, doc Document) error
	Update(ctx context.Context, path string, fields Document) error
	// Mutate runs fn inside one store transaction on a single document:
	// a transactional read-modify-write. fn receives nil when the document
	// does not exist. Returning a nil document leaves the store untouched.
	Mutate(ctx context.Context, path string, fn func(Document) (Document, error)) error
	AddDoc(ctx context.Context, collection string, doc Document) (string, error)
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, collection string, match func(path string, doc Document) bool) ([]Snapshot, error)
	// Subscribe registers fn for every snapshot committed under target.
	// Within one subscription snapshots arrive in commit order.
	Subscribe(target string, fn func(Snapshot)) CancelFunc
}

// BlobStore uploads attachment bytes and resolves stable URLs. Its own
// retry/backoff is out of scope.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) (ref string, err error)
	URL(ref string) (string, error)
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// used for logging and supervision without forcing a naming method onto
// the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
