package bots

import (
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/webchat/internal/endpoint"
	"github.com/ziadkadry99/webchat/internal/llm"
)

// Deps are the shared resources responders are built from.
type Deps struct {
	LLM            llm.Provider
	History        int
	WebhookSecret  string
	WebhookTimeout time.Duration
	DevTest        *DevTest
}

// Factory builds the responder for an endpoint's flow.
type Factory struct {
	deps Deps
}

// NewFactory creates a factory. A nil DevTest gets the stock timings.
func NewFactory(deps Deps) *Factory {
	if deps.DevTest == nil {
		deps.DevTest = NewDevTest()
	}
	return &Factory{deps: deps}
}

// For returns the responder for st.
func (f *Factory) For(st endpoint.Settings) (Responder, error) {
	switch st.Flow {
	case endpoint.FlowDevTest, "":
		return f.deps.DevTest, nil
	case endpoint.FlowLLM:
		if f.deps.LLM == nil {
			return nil, errors.New("the llm flow needs a configured llm provider")
		}
		return NewLLM(f.deps.LLM, st.ChatbotName, f.deps.History), nil
	case endpoint.FlowWebhook:
		return NewWebhook(st.FlowURL, f.deps.WebhookSecret, f.deps.WebhookTimeout), nil
	default:
		return nil, fmt.Errorf("unknown flow %q", st.Flow)
	}
}
