package bots

import (
	"context"
	"time"
)

// Incoming is a message a widget user sent to the bot.
type Incoming struct {
	SessionID  string
	EndpointID string
	Text       string
}

// Reply is one bot message. Delay is how long the bot "types" before the
// message is handed to the render queue.
type Reply struct {
	Text         string        `json:"text"`
	QuickReplies []string      `json:"quick_replies,omitempty"`
	Delay        time.Duration `json:"-"`
}

// Responder produces the bot's answer to a user message.
type Responder interface {
	Respond(ctx context.Context, in Incoming) ([]Reply, error)
}

// Greeter is implemented by responders that open the conversation.
// Greet is called once when the session starts; Text is empty.
type Greeter interface {
	Greet(ctx context.Context, in Incoming) ([]Reply, error)
}

// SessionEnder is implemented by responders that keep per-session state.
type SessionEnder interface {
	EndSession(sessionID string)
}

// Pusher delivers bot messages to a live session from outside the
// request/response flow.
type Pusher interface {
	Push(sessionID string, replies []Reply) error
}
