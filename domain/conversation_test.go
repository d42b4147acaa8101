package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversation_Participants(t *testing.T) {
	req := require.New(t)
	conversation := Conversation{ID: "C1", BuyerID: "A", SellerID: "B"}

	req.True(conversation.IsParticipant("A"))
	req.True(conversation.IsParticipant("B"))
	req.False(conversation.IsParticipant("C"))

	other, ok := conversation.OtherParticipant("A")
	req.True(ok)
	req.Equal("B", other)

	other, ok = conversation.OtherParticipant("B")
	req.True(ok)
	req.Equal("A", other)

	_, ok = conversation.OtherParticipant("C")
	req.False(ok)
}
