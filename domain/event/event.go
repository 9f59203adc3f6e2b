package event

import (
	"campus-sync/domain"
)

// DomainEvent is a typed snapshot decoded from the document store. Target
// returns the store path the event originated from, which is also the key
// subscriptions are shared under.
type DomainEvent interface {
	Target() string
}

type UserChanged struct {
	User domain.User
}

func (e UserChanged) Target() string { return "users/" + e.User.ID }

type UserDeleted struct {
	UserID string
}

func (e UserDeleted) Target() string { return "users/" + e.UserID }

type ChatChanged struct {
	Chat domain.Chat
}

func (e ChatChanged) Target() string { return "chats/" + e.Chat.ID }

type ChatDeleted struct {
	ChatID string
}

func (e ChatDeleted) Target() string { return "chats/" + e.ChatID }

type MessageAppended struct {
	Message domain.Message
}

func (e MessageAppended) Target() string {
	return "chats/" + e.Message.ChatID + "/messages/"
}

// MemberProfiles carries the point-in-time profile fetch derived from a
// chat's member set changing. It is produced by the fan-out stage, not by a
// store subscription.
type MemberProfiles struct {
	ChatID   string
	Profiles []domain.User
}

func (e MemberProfiles) Target() string { return "chats/" + e.ChatID }
