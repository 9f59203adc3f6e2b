package docstore

import (
	"campus-sync/contract"
	"strings"
	"sync"
)

// subscription buffers snapshots for one subscriber. The queue preserves
// enqueue order and is drained by a single goroutine, which gives the
// "commit order within one subscription" guarantee.
type subscription struct {
	target string
	fn     func(contract.Snapshot)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []contract.Snapshot
	closed bool
}

func newSubscription(target string, fn func(contract.Snapshot)) *subscription {
	sub := &subscription{target: target, fn: fn}
	sub.cond = sync.NewCond(&sub.mu)
	return sub
}

// matches reports whether a committed path falls under this subscription:
// exact match for document targets, prefix match for collection targets.
func (s *subscription) matches(path string) bool {
	if strings.HasSuffix(s.target, "/") {
		return strings.HasPrefix(path, s.target)
	}
	return path == s.target
}

func (s *subscription) enqueue(snap contract.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, snap)
	s.cond.Signal()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		snap := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(snap)
	}
}

// stop discards anything still queued. A callback already executing may
// finish; callers needing a hard guarantee layer an epoch guard on top.
func (s *subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
}
