package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_DirectChatID_Order_Independent(t *testing.T) {
	req := require.New(t)

	req.Equal(DirectChatID("bob", "anna"), DirectChatID("anna", "bob"))
	req.Equal("direct:anna:bob", DirectChatID("bob", "anna"))
}

func Test_RemoveMember_Drops_Admin_Role(t *testing.T) {
	req := require.New(t)
	chat := Chat{Members: []string{"anna", "bob"}, Admins: []string{"anna", "bob"}}

	chat.RemoveMember("bob")

	req.Equal([]string{"anna"}, chat.Members)
	req.Equal([]string{"anna"}, chat.Admins)
}

func Test_AddMember_And_Promote_Are_Idempotent(t *testing.T) {
	req := require.New(t)
	chat := Chat{}

	chat.AddMember("anna")
	chat.AddMember("anna")
	chat.Promote("anna")
	chat.Promote("anna")

	req.Equal([]string{"anna"}, chat.Members)
	req.Equal([]string{"anna"}, chat.Admins)
}
