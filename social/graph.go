// Package social implements the friend-graph manager: the request
// lifecycle, the symmetric friend relation, and profile search.
//
// Friend symmetry spans two user documents, and the store offers no
// cross-document transaction. Both paired operations here are therefore
// idempotent: when the mirror write fails the caller gets ErrPartialFailure
// and a retry from either side converges on the symmetric state.
package social

import (
	"context"
	"fmt"
	"log/slog"

	"campus-sync/domain"
	"campus-sync/errors"
	"campus-sync/repositories"
	"campus-sync/search"
)

type Manager struct {
	users     repositories.IUserRepository
	directory *search.Directory
	log       *slog.Logger
}

func NewManager(users repositories.IUserRepository, directory *search.Directory, log *slog.Logger) *Manager {
	return &Manager{users: users, directory: directory, log: log}
}

// SendFriendRequest appends from to the recipient's inbound request set.
// Duplicate detection runs inside the same transaction as the append, so a
// retried send fails cleanly with ErrAlreadyRequested instead of
// duplicating the entry.
func (m *Manager) SendFriendRequest(ctx context.Context, from, to string) error {
	if from == to {
		return fmt.Errorf("%w: cannot befriend yourself", errors.ErrSelfReference)
	}
	if _, err := m.users.Get(ctx, from); err != nil {
		return err
	}
	return m.users.Mutate(ctx, to, func(u *domain.User) error {
		if u.HasRequestFrom(from) {
			return fmt.Errorf("%w: %s -> %s", errors.ErrAlreadyRequested, from, to)
		}
		if u.IsFriend(from) {
			return fmt.Errorf("%w: %s and %s", errors.ErrAlreadyFriends, from, to)
		}
		u.AddRequest(from)
		return nil
	})
}

// AcceptFriendRequest adds requester to self's friends and clears the
// pending request, then mirrors the relation onto the requester's
// document. The two writes are independent: when the mirror fails the
// result is ErrPartialFailure, and calling Accept again from either side
// heals the one-sided relation (an already-friended self side is accepted
// as a retry, not rejected).
func (m *Manager) AcceptFriendRequest(ctx context.Context, self, requester string) error {
	if self == requester {
		return fmt.Errorf("%w: cannot befriend yourself", errors.ErrSelfReference)
	}
	err := m.users.Mutate(ctx, self, func(u *domain.User) error {
		if !u.HasRequestFrom(requester) && !u.IsFriend(requester) {
			return fmt.Errorf("%w: no pending request from %s", errors.ErrNotFound, requester)
		}
		u.AddFriend(requester)
		u.RemoveRequest(requester)
		return nil
	})
	if err != nil {
		return err
	}

	if err := m.users.Mutate(ctx, requester, func(u *domain.User) error {
		u.AddFriend(self)
		u.RemoveRequest(self)
		return nil
	}); err != nil {
		m.log.Warn("Friend relation is one-sided", "self", self, "requester", requester, "error", err)
		return fmt.Errorf("%w: %s accepted but %s was not updated: %v",
			errors.ErrPartialFailure, self, requester, err)
	}
	return nil
}

// RejectFriendRequest drops the pending request. The requester's document
// is untouched: rejection is never visible to the requester.
func (m *Manager) RejectFriendRequest(ctx context.Context, self, requester string) error {
	return m.users.Mutate(ctx, self, func(u *domain.User) error {
		u.RemoveRequest(requester)
		return nil
	})
}

// RemoveFriend deletes the relation from both sides. Same pairing rules as
// acceptance: removal of an absent entry is a no-op, so a retry after
// ErrPartialFailure finishes the job.
func (m *Manager) RemoveFriend(ctx context.Context, self, other string) error {
	if self == other {
		return fmt.Errorf("%w: cannot unfriend yourself", errors.ErrSelfReference)
	}
	if err := m.users.Mutate(ctx, self, func(u *domain.User) error {
		u.RemoveFriend(other)
		return nil
	}); err != nil {
		return err
	}

	if err := m.users.Mutate(ctx, other, func(u *domain.User) error {
		u.RemoveFriend(self)
		return nil
	}); err != nil {
		m.log.Warn("Friend removal is one-sided", "self", self, "other", other, "error", err)
		return fmt.Errorf("%w: %s removed %s but the mirror write failed: %v",
			errors.ErrPartialFailure, self, other, err)
	}
	return nil
}

// Search resolves the directory hits into full profiles. Terms match the
// normalized display name (all terms, any order); filters narrow by
// course/college/job. The searching user never appears in results, and
// ordering follows the directory's stable id order.
func (m *Manager) Search(ctx context.Context, selfID string, terms []string, filters search.Filters) ([]domain.User, error) {
	ids, err := m.directory.Search(ctx, terms, filters, selfID)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := m.users.Get(ctx, id)
		if err != nil {
			// The index can briefly trail the store; a missing profile is
			// dropped from results, not an error.
			m.log.Debug("Indexed user missing from store", "id", id, "error", err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}
