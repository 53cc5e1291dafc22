package llm

import "sync"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// History is a rolling window of the most recent conversation turns.
// It is safe for concurrent use.
type History struct {
	mu    sync.Mutex
	limit int
	turns []Message
}

// NewHistory keeps at most limit messages. A limit below 1 keeps none.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Add appends a turn and drops the oldest ones beyond the limit.
func (h *History) Add(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limit < 1 {
		return
	}
	h.turns = append(h.turns, Message{Role: role, Content: content})
	if over := len(h.turns) - h.limit; over > 0 {
		h.turns = append([]Message(nil), h.turns[over:]...)
	}
}

// Messages returns a copy of the kept turns, oldest first.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.turns...)
}
