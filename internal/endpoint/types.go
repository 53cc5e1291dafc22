package endpoint

import (
	"errors"
	"fmt"
	"time"
)

// Flow selects the bot that answers on an endpoint.
type Flow string

const (
	FlowDevTest Flow = "devtest"
	FlowLLM     Flow = "llm"
	FlowWebhook Flow = "webhook"
)

// Chat bubble themes understood by the widget stylesheet.
const (
	BubbleThemeDefault = "theme-chatbubble-default"
	BubbleThemePill    = "theme-chatbubble-pill"
)

// DevTestEndpointID always answers with the dev test bot, stored or not.
const DevTestEndpointID = "DEV_TEST_MODE"

// ErrNotFound is returned when an endpoint does not exist.
var ErrNotFound = errors.New("endpoint not found")

// Colors are the widget's theme colors. Each value is a hex color, an
// hsl() color or a ready-made CSS gradient.
type Colors struct {
	Header     string `json:"header"`
	User       string `json:"user"`
	Bot        string `json:"bot"`
	ChatBubble string `json:"chat_bubble,omitempty"`
}

// Settings configure one embeddable widget instance.
type Settings struct {
	ID                    string    `json:"id"`
	Flow                  Flow      `json:"flow"`
	FlowURL               string    `json:"flow_url,omitempty"`
	ChatbotName           string    `json:"chatbot_name"`
	Colors                Colors    `json:"colors"`
	InputFieldMessage     string    `json:"input_field_message"`
	SendButton            string    `json:"send_button"`
	ChatBubbleMessage     string    `json:"chat_bubble_message,omitempty"`
	ChatBubblePillMessage string    `json:"chat_bubble_pill_message,omitempty"`
	ChatBubbleTheme       string    `json:"chat_bubble_theme,omitempty"`
	ChatContainerTheme    string    `json:"chat_container_theme,omitempty"`
	EnableJumpAnimation   bool      `json:"enable_jump_animation"`
	AllowedOrigins        []string  `json:"allowed_origins"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Defaults returns settings for id with the widget's stock look.
func Defaults(id string) Settings {
	return Settings{
		ID:          id,
		Flow:        FlowDevTest,
		ChatbotName: "Assistant",
		Colors: Colors{
			Header: "#4f46e5",
			User:   "#4f46e5",
			Bot:    "#f3f4f6",
		},
		InputFieldMessage:   "Type a message...",
		SendButton:          "Send",
		ChatBubbleMessage:   "Need help? Chat with us!",
		ChatBubbleTheme:     BubbleThemeDefault,
		EnableJumpAnimation: true,
	}
}

// DevTestSettings are the settings served for DevTestEndpointID.
func DevTestSettings() Settings {
	return Settings{
		ID:          DevTestEndpointID,
		Flow:        FlowDevTest,
		ChatbotName: "Dev Test Bot",
		Colors: Colors{
			Header: "#667eea",
			User:   "#667eea",
		},
		InputFieldMessage:  "Type your message...",
		SendButton:         "Send",
		ChatBubbleTheme:    BubbleThemeDefault,
		ChatContainerTheme: "theme-container-default",
	}
}

// Validate checks that s can be served.
func (s Settings) Validate() error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	switch s.Flow {
	case FlowDevTest, FlowLLM:
	case FlowWebhook:
		if s.FlowURL == "" {
			return errors.New("flow_url is required for the webhook flow")
		}
	default:
		return fmt.Errorf("unknown flow %q", s.Flow)
	}
	switch s.ChatBubbleTheme {
	case "", BubbleThemeDefault, BubbleThemePill:
	default:
		return fmt.Errorf("unknown chat_bubble_theme %q", s.ChatBubbleTheme)
	}
	for _, o := range s.AllowedOrigins {
		if o == "" {
			return errors.New("allowed_origins must not contain empty patterns")
		}
	}
	return nil
}
