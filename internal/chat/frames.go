package chat

// Frame types sent by the widget.
const (
	FrameMessage    = "message"
	FrameQuickReply = "quick_reply"
)

// Frame types sent to the widget.
const (
	FrameSession      = "session"
	FrameStart        = "message.start"
	FrameChunk        = "message.chunk"
	FrameText         = "message.text"
	FrameQuickReplies = "quick_replies"
	FrameEnd          = "message.end"
	FrameInputReset   = "input.reset"
	FrameError        = "error"
)

// InFrame is a frame read from the widget.
type InFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Index     int    `json:"index,omitempty"`
}

// OutFrame is a frame written to the widget.
type OutFrame struct {
	Type      string   `json:"type"`
	SessionID string   `json:"session_id,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Text      string   `json:"text,omitempty"`
	Replies   []string `json:"replies,omitempty"`
	Error     string   `json:"error,omitempty"`
}
