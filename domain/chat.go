package domain

import (
	"slices"
	"time"
)

// Chat is a group conversation. CreatedBy is the owner: permanently a member
// and an admin, immune to removal and demotion. Admins is always a subset of
// Members.
type Chat struct {
	ID        string
	Name      string
	PhotoRef  string
	CreatedBy string
	CreatedAt time.Time
	Members   []string
	Admins    []string
	Direct    bool
}

func (c Chat) IsOwner(id string) bool  { return c.CreatedBy == id }
func (c Chat) IsMember(id string) bool { return slices.Contains(c.Members, id) }
func (c Chat) IsAdmin(id string) bool  { return slices.Contains(c.Admins, id) }

func (c *Chat) AddMember(id string) {
	if !c.IsMember(id) {
		c.Members = append(c.Members, id)
	}
}

// RemoveMember drops id from both the member and the admin set. Owner
// protection is enforced by the membership engine, not here.
func (c *Chat) RemoveMember(id string) {
	c.Members = slices.DeleteFunc(c.Members, func(m string) bool { return m == id })
	c.Admins = slices.DeleteFunc(c.Admins, func(a string) bool { return a == id })
}

func (c *Chat) Promote(id string) {
	if !c.IsAdmin(id) {
		c.Admins = append(c.Admins, id)
	}
}

func (c *Chat) Demote(id string) {
	c.Admins = slices.DeleteFunc(c.Admins, func(a string) bool { return a == id })
}

// DirectChatID derives the deterministic document id of the 1:1 chat between
// two users. Both argument orders yield the same id, so concurrent
// find-or-create calls converge on a single thread.
func DirectChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "direct:" + a + ":" + b
}
