package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"campus-sync/contract"
	"campus-sync/domain"
	"campus-sync/domain/event"
	"campus-sync/repositories"

	"github.com/samber/lo"
)

// ProfileFanout enriches chat membership changes with member profiles.
// When a chat gains members it fetches each new member's profile once,
// point in time, and forwards the batch downstream. Profiles are not
// watched live: a later rename only shows after the membership changes
// again, which mirrors how the member pane behaves on screen.
type ProfileFanout struct {
	users repositories.IUserRepository
	sink  contract.EventSink
	log   *slog.Logger

	mu      sync.Mutex
	members map[string][]string
}

func NewProfileFanout(users repositories.IUserRepository, sink contract.EventSink, log *slog.Logger) *ProfileFanout {
	return &ProfileFanout{
		users:   users,
		sink:    sink,
		log:     log,
		members: make(map[string][]string),
	}
}

func (f *ProfileFanout) Consume(ctx context.Context, e event.DomainEvent) error {
	switch ev := e.(type) {
	case event.ChatChanged:
		return f.onChatChanged(ctx, ev.Chat)
	case event.ChatDeleted:
		f.mu.Lock()
		delete(f.members, ev.ChatID)
		f.mu.Unlock()
		return f.sink.Consume(ctx, e)
	default:
		return f.sink.Consume(ctx, e)
	}
}

func (f *ProfileFanout) onChatChanged(ctx context.Context, chat domain.Chat) error {
	f.mu.Lock()
	added, _ := lo.Difference(chat.Members, f.members[chat.ID])
	f.members[chat.ID] = chat.Members
	f.mu.Unlock()

	if err := f.sink.Consume(ctx, event.ChatChanged{Chat: chat}); err != nil {
		return err
	}
	if len(added) == 0 {
		return nil
	}

	profiles := make([]domain.User, 0, len(added))
	for _, id := range added {
		user, err := f.users.Get(ctx, id)
		if err != nil {
			// A member referenced before its profile document lands. The
			// next membership change will pick it up.
			f.log.Warn("Missing profile for chat member", "chat", chat.ID, "user", id, "error", err)
			continue
		}
		profiles = append(profiles, user)
	}
	if len(profiles) == 0 {
		return nil
	}

	if err := f.sink.Consume(ctx, event.MemberProfiles{ChatID: chat.ID, Profiles: profiles}); err != nil {
		return fmt.Errorf("profile fanout for chat %s: %w", chat.ID, err)
	}
	return nil
}
