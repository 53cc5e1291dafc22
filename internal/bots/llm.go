package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ziadkadry99/webchat/internal/llm"
)

// LLM answers with a chat-completion model. Each session keeps a rolling
// window of its most recent turns.
type LLM struct {
	provider llm.Provider
	system   string
	limit    int

	mu        sync.Mutex
	histories map[string]*llm.History
}

// NewLLM creates an LLM responder introducing itself as botName and
// remembering up to history turns per session.
func NewLLM(provider llm.Provider, botName string, history int) *LLM {
	if botName == "" {
		botName = "Assistant"
	}
	return &LLM{
		provider:  provider,
		system:    systemPrompt(botName),
		limit:     history,
		histories: make(map[string]*llm.History),
	}
}

func systemPrompt(botName string) string {
	return fmt.Sprintf("You are %s, a friendly assistant in a website chat widget. "+
		"Answer in a few short sentences of plain text. Do not use Markdown tables or headings.", botName)
}

func (l *LLM) Respond(ctx context.Context, in Incoming) ([]Reply, error) {
	h := l.history(in.SessionID)

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: l.system}}
	msgs = append(msgs, h.Messages()...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: in.Text})

	resp, err := l.provider.Complete(ctx, llm.CompletionRequest{
		Messages:    msgs,
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("completing with %s: %w", l.provider.Name(), err)
	}

	answer := strings.TrimSpace(resp.Content)
	h.Add(llm.RoleUser, in.Text)
	h.Add(llm.RoleAssistant, answer)
	return []Reply{{Text: answer}}, nil
}

// EndSession forgets the session's history.
func (l *LLM) EndSession(sessionID string) {
	l.mu.Lock()
	delete(l.histories, sessionID)
	l.mu.Unlock()
}

func (l *LLM) history(sessionID string) *llm.History {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.histories[sessionID]
	if !ok {
		h = llm.NewHistory(l.limit)
		l.histories[sessionID] = h
	}
	return h
}
