package runtime

import (
	"context"
	"log/slog"

	"campus-sync/contract"
	"campus-sync/domain/event"
	"campus-sync/membership"
	"campus-sync/messagelog"
	"campus-sync/profile"
	"campus-sync/repositories"
	"campus-sync/social"
)

// Engine is the client-facing surface of the sync engine. It bundles the
// domain services with the subscription coordinator so a client session
// holds one handle, opens screens from it, and attaches live feeds.
type Engine struct {
	Profiles *profile.Manager
	Social   *social.Manager
	Chats    *membership.Engine
	Messages *messagelog.Coordinator

	users       repositories.IUserRepository
	chats       repositories.IChatRepository
	coordinator *Coordinator
	log         *slog.Logger
}

func NewEngine(
	profiles *profile.Manager,
	graph *social.Manager,
	chats *membership.Engine,
	messages *messagelog.Coordinator,
	users repositories.IUserRepository,
	chatRepo repositories.IChatRepository,
	coordinator *Coordinator,
	log *slog.Logger,
) *Engine {
	return &Engine{
		Profiles:    profiles,
		Social:      graph,
		Chats:       chats,
		Messages:    messages,
		users:       users,
		chats:       chatRepo,
		coordinator: coordinator,
		log:         log,
	}
}

func (e *Engine) OpenScreen() *Screen {
	return e.coordinator.NewScreen()
}

// AttachChatFeed streams one chat to the sink: message appends, chat
// document changes, deletion, and profile batches for members joining
// the chat. Snapshots for the chat and its log share nothing, so the
// sink must tolerate a message arriving before the membership change
// that admitted its sender.
func (e *Engine) AttachChatFeed(ctx context.Context, screen *Screen, chatID string, sink contract.EventSink) {
	enriched := NewProfileFanout(e.users, sink, e.log)
	forward := func(snap contract.Snapshot) {
		ev, ok := DecodeSnapshot(snap, e.log)
		if !ok {
			return
		}
		if err := enriched.Consume(ctx, ev); err != nil {
			e.log.Warn("Chat feed sink rejected event", "chat", chatID, "error", err)
		}
	}
	screen.Watch(repositories.ChatPath(chatID), forward)
	screen.Watch(repositories.MessageCollection(chatID)+"/", forward)
}

// AttachHomeFeed streams the signed-in user's own document (profile,
// friends, incoming requests) plus every chat they belong to. Chats the
// user is not a member of are filtered out; a deletion is always
// forwarded so the list can drop the entry.
func (e *Engine) AttachHomeFeed(ctx context.Context, screen *Screen, userID string, sink contract.EventSink) {
	forward := func(snap contract.Snapshot) {
		ev, ok := DecodeSnapshot(snap, e.log)
		if !ok {
			return
		}
		switch typed := ev.(type) {
		case event.MessageAppended:
			// The chats/ prefix also matches message sub-documents. The
			// home list only cares about chat membership and metadata.
			return
		case event.ChatChanged:
			if !typed.Chat.IsMember(userID) {
				return
			}
		}
		if err := sink.Consume(ctx, ev); err != nil {
			e.log.Warn("Home feed sink rejected event", "user", userID, "error", err)
		}
	}
	screen.Watch(repositories.UserPath(userID), forward)
	screen.Watch(repositories.ChatCollection+"/", forward)
}
