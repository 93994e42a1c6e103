package client

import (
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
)

// Conversation holds the message list on the consumer side of a chat
// stream. While a stream is active the assistant's last message is mutated
// in place, never replaced; the accumulator is append-only until the next
// user message starts a new assistant turn.
type Conversation struct {
	messages []chat.Message
}

// Messages returns a copy of the current message list.
func (c *Conversation) Messages() []chat.Message {
	out := make([]chat.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// AddUser appends a user turn.
func (c *Conversation) AddUser(content string) {
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Content: content})
}

// AppendAssistantDelta applies one incremental fragment. If the last
// message is already the assistant's turn it is extended in place,
// otherwise a new assistant message starts.
func (c *Conversation) AppendAssistantDelta(delta string) {
	if delta == "" {
		return
	}
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == chat.RoleAssistant {
		c.messages[n-1].Content += delta
		return
	}
	c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: delta})
}

// FinishTurn closes out the streaming turn. On failure with no accumulated
// content the empty placeholder is removed so the conversation shows no
// empty turn; partial content is kept as the final state.
func (c *Conversation) FinishTurn(failed bool) {
	n := len(c.messages)
	if failed && n > 0 && c.messages[n-1].Role == chat.RoleAssistant && c.messages[n-1].Content == "" {
		c.messages = c.messages[:n-1]
	}
}

// LastAssistant returns the content of the trailing assistant message, or
// empty when the last turn is not the assistant's.
func (c *Conversation) LastAssistant() string {
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == chat.RoleAssistant {
		return c.messages[n-1].Content
	}
	return ""
}
