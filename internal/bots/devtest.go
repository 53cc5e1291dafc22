package bots

import (
	"context"
	"math/rand/v2"
	"time"
)

const devTestGreeting = "Hello! I'm a dev test bot. How can I help you today?"

var devTestGreetingReplies = []string{"Tell me more", "What can you do?", "Goodbye", "This is a long quick reply", "Test"}

var devTestResponses = []string{
	"That's interesting! Tell me more about that.",
	"I understand. How does that make you feel?",
	"Thanks for sharing that with me.",
	"I'm here to help. What else would you like to discuss?",
	"That's a great point. Can you elaborate?",
	"I'm listening. Please continue.",
	"Thank you for your message. How can I assist you further?",
	"I appreciate you taking the time to share that.",
	"That's helpful information. What's next?",
	"I'm here to support you. What would you like to explore?",
}

var devTestQuickReplies = []string{"Tell me more", "What else?", "Thanks", "Goodbye"}

// DevTest is a canned bot for trying the widget without a backend. It
// greets after a second and answers with a random stock phrase after a
// random pause of under a second.
type DevTest struct {
	GreetDelay time.Duration
	MaxDelay   time.Duration
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

// NewDevTest returns a DevTest with the stock timings.
func NewDevTest() *DevTest {
	return &DevTest{GreetDelay: time.Second, MaxDelay: time.Second}
}

func (d *DevTest) Greet(ctx context.Context, in Incoming) ([]Reply, error) {
	return []Reply{{
		Text:         devTestGreeting,
		QuickReplies: append([]string(nil), devTestGreetingReplies...),
		Delay:        d.GreetDelay,
	}}, nil
}

func (d *DevTest) Respond(ctx context.Context, in Incoming) ([]Reply, error) {
	pick := d.Pick
	if pick == nil {
		pick = rand.IntN
	}
	var delay time.Duration
	if d.MaxDelay > 0 {
		delay = rand.N(d.MaxDelay)
	}
	return []Reply{{
		Text:         devTestResponses[pick(len(devTestResponses))],
		QuickReplies: append([]string(nil), devTestQuickReplies...),
		Delay:        delay,
	}}, nil
}
