package chat

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ziadkadry99/webchat/internal/queue"
)

// surface renders queued messages as frames on the session's connection.
type surface struct {
	s *Session
}

func (c surface) NewBubble(sender queue.Sender) queue.Bubble {
	b := &bubble{s: c.s, id: uuid.New().String(), sender: sender}
	c.s.send(OutFrame{Type: FrameStart, MessageID: b.id, Sender: string(sender)})
	return b
}

// ScrollToBottom is a no-op: the widget scrolls after every frame it
// renders.
func (surface) ScrollToBottom() {}

// bubble is one message on the wire, identified by its message id.
type bubble struct {
	s      *Session
	id     string
	sender queue.Sender

	mu      sync.Mutex
	text    strings.Builder
	replies []string
}

func (b *bubble) AppendText(s string) {
	b.mu.Lock()
	b.text.WriteString(s)
	b.mu.Unlock()
	b.s.send(OutFrame{Type: FrameChunk, MessageID: b.id, Text: s})
}

func (b *bubble) SetText(s string) {
	b.mu.Lock()
	b.text.Reset()
	b.text.WriteString(s)
	b.mu.Unlock()
	b.s.send(OutFrame{Type: FrameText, MessageID: b.id, Text: s})
}

func (b *bubble) AttachQuickReplies(replies []queue.QuickReply) {
	labels := make([]string, len(replies))
	for i, r := range replies {
		labels[i] = r.Label
	}
	b.mu.Lock()
	b.replies = labels
	b.mu.Unlock()

	b.s.rememberReplies(b.id, replies)
	b.s.send(OutFrame{Type: FrameQuickReplies, MessageID: b.id, Replies: labels})
}

func (b *bubble) Finish() {
	b.s.send(OutFrame{Type: FrameEnd, MessageID: b.id})

	b.mu.Lock()
	text, replies := b.text.String(), b.replies
	b.mu.Unlock()
	b.s.record(b.sender, text, replies)
}
