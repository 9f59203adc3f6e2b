// Package runtime coordinates live document subscriptions. It owns the
// screen lifecycle, keeps one store subscription per watched target no
// matter how many screens watch it, and guarantees that a detached screen
// never hears another snapshot.
package runtime

import (
	"log/slog"
	"strings"

	"campus-sync/contract"
	"campus-sync/domain/event"
	"campus-sync/repositories"
)

// DecodeSnapshot turns a raw store snapshot into a typed domain event.
// Malformed documents are reported to the caller as a false ok so the
// dispatch loop can log and keep going instead of crashing a listener.
func DecodeSnapshot(snap contract.Snapshot, log *slog.Logger) (event.DomainEvent, bool) {
	switch {
	case strings.Contains(snap.Path, "/messages/"):
		if snap.Deleted {
			// Individual message deletion is not part of the product.
			// A chat deletion removes the whole log and arrives as a
			// chat snapshot, so there is nothing to emit here.
			return nil, false
		}
		message, err := repositories.DecodeMessage(snap.Data)
		if err != nil {
			log.Warn("Skipping malformed message snapshot", "path", snap.Path, "error", err)
			return nil, false
		}
		return event.MessageAppended{Message: message}, true

	case strings.HasPrefix(snap.Path, repositories.ChatCollection+"/"):
		id := strings.TrimPrefix(snap.Path, repositories.ChatCollection+"/")
		if snap.Deleted {
			return event.ChatDeleted{ChatID: id}, true
		}
		chat, err := repositories.DecodeChat(snap.Data)
		if err != nil {
			log.Warn("Skipping malformed chat snapshot", "path", snap.Path, "error", err)
			return nil, false
		}
		return event.ChatChanged{Chat: chat}, true

	case strings.HasPrefix(snap.Path, repositories.UserCollection+"/"):
		id := strings.TrimPrefix(snap.Path, repositories.UserCollection+"/")
		if snap.Deleted {
			return event.UserDeleted{UserID: id}, true
		}
		user, err := repositories.DecodeUser(snap.Data)
		if err != nil {
			log.Warn("Skipping malformed user snapshot", "path", snap.Path, "error", err)
			return nil, false
		}
		return event.UserChanged{User: user}, true
	}
	return nil, false
}
