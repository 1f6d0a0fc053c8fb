package llm

// History is the append-only conversation record for a session. The full
// record is retained for the session's lifetime; only the fixed system
// message plus the most recent memorySize messages are submitted to
// generation.
//
// History is not safe for concurrent use; it is owned exclusively by the
// turn coordinator.
type History struct {
	system     Message
	messages   []Message
	memorySize int
}

// NewHistory creates a history with a fixed system message and sliding
// window size
func NewHistory(systemPrompt string, memorySize int) *History {
	return &History{
		system:     Message{Role: RoleSystem, Content: systemPrompt},
		memorySize: memorySize,
	}
}

// AppendUser appends a user message
func (h *History) AppendUser(content string) {
	h.messages = append(h.messages, Message{Role: RoleUser, Content: content})
}

// AppendAssistant appends an assistant message
func (h *History) AppendAssistant(content string) {
	h.messages = append(h.messages, Message{Role: RoleAssistant, Content: content})
}

// Window returns the system message plus the most recent memorySize
// messages, in order. The returned slice is freshly allocated.
func (h *History) Window() []Message {
	recent := h.messages
	if len(recent) > h.memorySize {
		recent = recent[len(recent)-h.memorySize:]
	}

	window := make([]Message, 0, len(recent)+1)
	window = append(window, h.system)
	window = append(window, recent...)
	return window
}

// Len returns the number of stored messages, excluding the system message
func (h *History) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the full stored history, excluding the system
// message
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}
