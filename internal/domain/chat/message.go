package chat

import "fmt"

// Role is a closed enum. Parse it instead of comparing raw strings so a
// typo can never slip through a role check.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a wire-level role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("invalid chat role: %q", s)
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryWindow is the number of trailing messages forwarded to the model;
// older history is silently dropped.
const HistoryWindow = 10

// Window returns the last HistoryWindow messages.
func Window(messages []Message) []Message {
	if len(messages) <= HistoryWindow {
		return messages
	}
	return messages[len(messages)-HistoryWindow:]
}
