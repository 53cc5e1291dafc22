package transcript

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Session is one widget conversation.
type Session struct {
	ID         string     `json:"id"`
	EndpointID string     `json:"endpoint_id"`
	RemoteAddr string     `json:"remote_addr,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Messages   int        `json:"messages"`
}

// Message is one fully rendered chat bubble.
type Message struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Seq          int       `json:"seq"`
	Sender       string    `json:"sender"`
	Text         string    `json:"text"`
	QuickReplies []string  `json:"quick_replies,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transcript is a session with its messages in render order.
type Transcript struct {
	Session  Session   `json:"session"`
	Messages []Message `json:"messages"`
}

// ListFilter controls which sessions to return.
type ListFilter struct {
	EndpointID string
	Limit      int
}
