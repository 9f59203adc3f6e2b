// Package domain contains core concepts of the campus social system.
// This file defines User entities and the social-graph invariants over them.
// No storage, network, or UI logic should be added here.
package domain

import (
	"slices"
	"strings"
)

// User is a profile document in the social graph. Friends and FriendRequests
// are id sets stored as slices; a user id never appears in its own sets.
type User struct {
	ID             string
	Name           string
	Surname        string
	Patronymic     string
	Course         string
	College        string
	Job            string
	PhotoRef       string
	Friends        []string
	FriendRequests []string
}

// DisplayName is the name users search each other by.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

func (u User) IsFriend(id string) bool {
	return slices.Contains(u.Friends, id)
}

func (u User) HasRequestFrom(id string) bool {
	return slices.Contains(u.FriendRequests, id)
}

// AddFriend inserts id into the friend set. It is a no-op when the id is
// already present, which keeps paired friend writes retryable.
func (u *User) AddFriend(id string) {
	if !u.IsFriend(id) {
		u.Friends = append(u.Friends, id)
	}
}

func (u *User) RemoveFriend(id string) {
	u.Friends = slices.DeleteFunc(u.Friends, func(f string) bool { return f == id })
}

func (u *User) AddRequest(id string) {
	if !u.HasRequestFrom(id) {
		u.FriendRequests = append(u.FriendRequests, id)
	}
}

func (u *User) RemoveRequest(id string) {
	u.FriendRequests = slices.DeleteFunc(u.FriendRequests, func(f string) bool { return f == id })
}
