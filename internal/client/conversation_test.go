package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vericlause/vericlause-ai/internal/domain/chat"
)

func TestConversationAppendsDeltasInPlace(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("What does clause 2 mean?")

	conv.AppendAssistantDelta("It ")
	conv.AppendAssistantDelta("limits ")
	conv.AppendAssistantDelta("liability.")
	conv.FinishTurn(false)

	msgs := conv.Messages()
	assert.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "It limits liability.", msgs[1].Content)
	assert.Equal(t, "It limits liability.", conv.LastAssistant())
}

func TestConversationEmptyDeltaIgnored(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("q")
	conv.AppendAssistantDelta("")
	assert.Len(t, conv.Messages(), 1)
}

func TestConversationFailedTurnRemovesEmptyPlaceholder(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("q")
	// The stream failed before any delta arrived; an assistant message with
	// empty content must not linger.
	conv.AppendAssistantDelta("")
	conv.FinishTurn(true)

	msgs := conv.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
}

func TestConversationFailedTurnKeepsPartialContent(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("q")
	conv.AppendAssistantDelta("partial ans")
	conv.FinishTurn(true)

	assert.Equal(t, "partial ans", conv.LastAssistant())
}

func TestConversationNewUserTurnStartsNewAssistantMessage(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("first")
	conv.AppendAssistantDelta("answer one")
	conv.FinishTurn(false)
	conv.AddUser("second")
	conv.AppendAssistantDelta("answer two")
	conv.FinishTurn(false)

	msgs := conv.Messages()
	assert.Len(t, msgs, 4)
	assert.Equal(t, "answer one", msgs[1].Content)
	assert.Equal(t, "answer two", msgs[3].Content)
}

func TestConversationMessagesReturnsCopy(t *testing.T) {
	conv := &Conversation{}
	conv.AddUser("q")

	msgs := conv.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "q", conv.Messages()[0].Content)
}
