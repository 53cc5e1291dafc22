package queue

import "github.com/ziadkadry99/webchat/internal/typewriter"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Surface is the container messages are rendered into. Implementations must
// be safe for use from the manager's animation goroutine.
type Surface interface {
	// NewBubble creates a message wrapper holding an empty text surface and
	// appends it to the container right away.
	NewBubble(sender Sender) Bubble
	ScrollToBottom()
}

// Bubble is the text surface of one rendered message.
type Bubble interface {
	typewriter.Target
	// SetText replaces the bubble content in one step.
	SetText(text string)
	// AttachQuickReplies adds the clickable reply controls under the bubble.
	AttachQuickReplies(replies []QuickReply)
	// Finish marks the message as fully rendered.
	Finish()
}

// Transport carries a user's reply onward, usually to the bot.
type Transport interface {
	Emit(text string) error
}

// InputControl is the text input affordance next to the chat surface.
type InputControl interface {
	ResetInput()
}

// ReplyContext is what a quick reply needs to behave like typed input.
type ReplyContext struct {
	Transport Transport
	Input     InputControl
}

// Message is one queued chat message. It is not modified after Enqueue.
type Message struct {
	Target       Surface
	Text         string
	Sender       Sender
	QuickReplies []string
	Reply        *ReplyContext
}

// QuickReply is a suggested response attached to a finished bot message.
type QuickReply struct {
	Label    string
	activate func() error
}

// Activate behaves as if the user typed and sent Label: the label is
// rendered as a user message, emitted on the transport and the input is
// reset. The returned error comes from the transport.
func (q QuickReply) Activate() error {
	if q.activate == nil {
		return nil
	}
	return q.activate()
}
