package runtime

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"campus-sync/contract"
)

// Coordinator multiplexes store subscriptions. All screens watching the
// same target share one underlying subscription; the last detach cancels
// it. Screens carry an epoch counter so that a snapshot buffered while a
// screen resets is discarded instead of reaching a stale callback.
type Coordinator struct {
	store contract.DocumentStore
	log   *slog.Logger

	mu        sync.Mutex
	listeners map[string]*listener
}

func NewCoordinator(store contract.DocumentStore, log *slog.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		log:       log,
		listeners: make(map[string]*listener),
	}
}

// listener owns the single store subscription for one target and fans
// snapshots out to every watch attached to it.
type listener struct {
	target string
	cancel contract.CancelFunc
	refs   int

	mu      sync.RWMutex
	watches map[*watch]struct{}
}

type watch struct {
	screen *Screen
	epoch  uint64
	fn     func(contract.Snapshot)
}

// dispatch runs on the subscription's delivery goroutine, so snapshots
// for one target reach watches in commit order. The epoch is compared
// under the read lock: once a reset has taken the write lock and bumped
// the screen epoch, no stale callback can still be in flight.
func (l *listener) dispatch(snap contract.Snapshot) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for w := range l.watches {
		if w.epoch == w.screen.epoch.Load() {
			w.fn(snap)
		}
	}
}

// Screen is the unit of subscription lifecycle. A page of the client
// opens one screen, attaches its watches, and resets it on navigation.
type Screen struct {
	coord *Coordinator
	epoch atomic.Uint64

	mu      sync.Mutex
	closed  bool
	watches map[*watch]*listener
}

func (c *Coordinator) NewScreen() *Screen {
	return &Screen{
		coord:   c,
		watches: make(map[*watch]*listener),
	}
}

// Watch delivers every subsequent snapshot of target to fn. A target
// ending in "/" watches the whole collection. The callback runs on the
// shared delivery goroutine for the target and must not block.
func (s *Screen) Watch(target string, fn func(contract.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	w := &watch{screen: s, epoch: s.epoch.Load(), fn: fn}
	l := s.coord.acquire(target)

	l.mu.Lock()
	l.watches[w] = struct{}{}
	l.mu.Unlock()

	s.watches[w] = l
}

// Reset detaches every watch and invalidates their epoch. Snapshots
// already queued for delivery are dropped; the screen can be reused for
// a fresh set of watches immediately.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach()
}

// Close is a terminal Reset. Further Watch calls are ignored.
func (s *Screen) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.detach()
}

func (s *Screen) detach() {
	s.epoch.Add(1)
	for w, l := range s.watches {
		l.mu.Lock()
		delete(l.watches, w)
		l.mu.Unlock()
		s.coord.release(l)
	}
	s.watches = make(map[*watch]*listener)
}

func (c *Coordinator) acquire(target string) *listener {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.listeners[target]; ok {
		l.refs++
		return l
	}

	l := &listener{target: target, watches: make(map[*watch]struct{})}
	l.cancel = c.store.Subscribe(target, l.dispatch)
	l.refs = 1
	c.listeners[target] = l
	c.log.Debug("Opened store subscription", "target", target)
	return l
}

func (c *Coordinator) release(l *listener) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l.refs--
	if l.refs > 0 {
		return
	}
	l.cancel()
	delete(c.listeners, l.target)
	c.log.Debug("Closed store subscription", "target", l.target)
}
