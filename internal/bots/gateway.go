package bots

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/webchat/internal/logger"
)

// ApologyText is rendered when the responder fails.
const ApologyText = "Sorry, something went wrong on my side. Please try again."

// ErrClosed is returned by Submit after the gateway stopped.
var ErrClosed = errors.New("bot gateway closed")

// Gateway feeds one session's user messages to a Responder, one at a
// time and in order, and delivers the replies.
type Gateway struct {
	responder Responder
	deliver   func(Reply)
	log       *logger.Logger
	session   Incoming

	in   chan string
	done chan struct{}
}

// NewGateway creates a gateway for session. deliver is called from the
// gateway goroutine for every reply, after the reply's delay.
func NewGateway(responder Responder, session Incoming, deliver func(Reply), log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		responder: responder,
		deliver:   deliver,
		log:       log.WithSession(session.SessionID).WithEndpoint(session.EndpointID),
		session:   session,
		in:        make(chan string, 16),
		done:      make(chan struct{}),
	}
}

// Submit queues text for the responder. It blocks while the queue is full.
func (g *Gateway) Submit(ctx context.Context, text string) error {
	select {
	case g.in <- text:
		return nil
	case <-g.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run greets the user when the responder is a Greeter, then answers
// submitted messages until ctx is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	defer close(g.done)
	defer func() {
		if e, ok := g.responder.(SessionEnder); ok {
			e.EndSession(g.session.SessionID)
		}
	}()

	if greeter, ok := g.responder.(Greeter); ok {
		replies, err := greeter.Greet(ctx, g.session)
		g.handle(ctx, "greet", replies, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-g.in:
			in := g.session
			in.Text = text
			start := time.Now()
			replies, err := g.responder.Respond(ctx, in)
			g.log.Debug("bot responded", zap.Int("replies", len(replies)), zap.Duration("took", time.Since(start)))
			g.handle(ctx, "respond", replies, err)
		}
	}
}

func (g *Gateway) handle(ctx context.Context, op string, replies []Reply, err error) {
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		g.log.Error("bot "+op+" failed", zap.Error(err))
		replies = []Reply{{Text: ApologyText}}
	}
	for _, r := range replies {
		if r.Delay > 0 {
			t := time.NewTimer(r.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return
		}
		g.deliver(r)
	}
}
