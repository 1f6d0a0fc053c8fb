package llm

import "context"

// Role identifies the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatClient is the interface for text generation providers: submit a
// conversation, receive one reply string.
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
