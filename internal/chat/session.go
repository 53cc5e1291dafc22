package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ziadkadry99/webchat/internal/bots"
	"github.com/ziadkadry99/webchat/internal/endpoint"
	"github.com/ziadkadry99/webchat/internal/logger"
	"github.com/ziadkadry99/webchat/internal/queue"
	"github.com/ziadkadry99/webchat/internal/transcript"
	"github.com/ziadkadry99/webchat/internal/typewriter"
)

// maxRememberedReplies is how many recent messages keep clickable quick
// replies.
const maxRememberedReplies = 50

// Limits bound what one widget connection may send.
type Limits struct {
	RatePerSecond float64
	Burst         int
	MaxMessageLen int
}

// Session is one live widget conversation. It owns the render queue; the
// widget's typed messages, quick-reply clicks and the bot's replies all
// enter the conversation through it.
type Session struct {
	ID         string
	EndpointID string
	StartedAt  time.Time

	settings    endpoint.Settings
	client      *Client
	queue       *queue.Manager
	gateway     *bots.Gateway
	transcripts *transcript.Store
	limiter     *rate.Limiter
	limits      Limits
	log         *logger.Logger
	reply       *queue.ReplyContext

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	replies    map[string][]queue.QuickReply
	replyOrder []string

	recMu    sync.Mutex
	pending  []pendingRecord
	recReady chan struct{}
}

// pendingRecord is a finished message waiting to be written to the
// transcript.
type pendingRecord struct {
	sender  queue.Sender
	text    string
	replies []string
}

// SessionConfig carries what a session is built from.
type SessionConfig struct {
	ID          string
	Settings    endpoint.Settings
	Client      *Client
	Responder   bots.Responder
	Typewriter  *typewriter.Typewriter
	Transcripts *transcript.Store
	Limits      Limits
	Log         *logger.Logger
}

// NewSession wires a session. Its lifetime is bound to parent.
func NewSession(parent context.Context, cfg SessionConfig) *Session {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:          cfg.ID,
		EndpointID:  cfg.Settings.ID,
		StartedAt:   time.Now().UTC(),
		settings:    cfg.Settings,
		client:      cfg.Client,
		queue:       queue.New(cfg.Typewriter),
		transcripts: cfg.Transcripts,
		limits:      cfg.Limits,
		log:         log.WithSession(cfg.ID).WithEndpoint(cfg.Settings.ID),
		ctx:         ctx,
		cancel:      cancel,
		replies:     make(map[string][]queue.QuickReply),
		recReady:    make(chan struct{}, 1),
	}
	if cfg.Limits.RatePerSecond > 0 {
		burst := cfg.Limits.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Limits.RatePerSecond), burst)
	}
	s.reply = &queue.ReplyContext{Transport: transport{s}, Input: input{s}}
	s.gateway = bots.NewGateway(cfg.Responder, bots.Incoming{SessionID: cfg.ID, EndpointID: cfg.Settings.ID}, s.deliver, s.log)
	return s
}

// Run serves the session until the widget disconnects or the parent
// context ends.
func (s *Session) Run() error {
	s.send(OutFrame{Type: FrameSession, SessionID: s.ID})

	g, ctx := errgroup.WithContext(s.ctx)
	g.Go(func() error { return s.client.ReadPump(ctx, s.handleFrame) })
	g.Go(func() error { return s.client.WritePump(ctx) })
	g.Go(func() error { return s.gateway.Run(ctx) })
	g.Go(func() error { return s.recordLoop(ctx) })
	// Cancels the session, and with it the other members, once any stops.
	g.Go(func() error {
		<-ctx.Done()
		s.cancel()
		return nil
	})

	err := g.Wait()
	s.cancel()
	s.queue.Close()
	s.flushRecords()
	if err == errDisconnected {
		return nil
	}
	return err
}

// Close ends the session.
func (s *Session) Close() { s.cancel() }

// Pending reports how many messages wait behind the one rendering.
func (s *Session) Pending() int { return s.queue.Pending() }

// State reports the render state of the session's queue.
func (s *Session) State() queue.State { return s.queue.State() }

// Push renders bot replies that did not come from the session's responder.
func (s *Session) Push(replies []bots.Reply) {
	for _, r := range replies {
		s.deliver(r)
	}
}

func (s *Session) deliver(r bots.Reply) {
	s.queue.Enqueue(queue.Message{
		Target:       surface{s},
		Text:         r.Text,
		Sender:       queue.SenderBot,
		QuickReplies: r.QuickReplies,
		Reply:        s.reply,
	})
}

func (s *Session) handleFrame(f InFrame) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.sendError("you are sending messages too quickly")
		return
	}

	switch f.Type {
	case FrameMessage:
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return
		}
		if s.limits.MaxMessageLen > 0 && utf8.RuneCountInString(text) > s.limits.MaxMessageLen {
			s.sendError("message is too long")
			return
		}
		s.queue.Enqueue(queue.Message{
			Target: surface{s},
			Text:   text,
			Sender: queue.SenderUser,
			Reply:  s.reply,
		})
		if err := s.reply.Transport.Emit(text); err != nil {
			s.log.Warn("submitting message to bot", zap.Error(err))
		}

	case FrameQuickReply:
		reply, ok := s.lookupReply(f.MessageID, f.Index)
		if !ok {
			s.sendError("unknown quick reply")
			return
		}
		if err := reply.Activate(); err != nil {
			s.log.Warn("activating quick reply", zap.Error(err))
		}

	default:
		s.sendError("unknown message type: " + f.Type)
	}
}

// rememberReplies keeps the quick replies of the most recent messages
// clickable. Older ones are forgotten.
func (s *Session) rememberReplies(messageID string, replies []queue.QuickReply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replies[messageID]; !ok {
		s.replyOrder = append(s.replyOrder, messageID)
	}
	s.replies[messageID] = replies
	for len(s.replyOrder) > maxRememberedReplies {
		delete(s.replies, s.replyOrder[0])
		s.replyOrder = s.replyOrder[1:]
	}
}

func (s *Session) lookupReply(messageID string, index int) (queue.QuickReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replies := s.replies[messageID]
	if index < 0 || index >= len(replies) {
		return queue.QuickReply{}, false
	}
	return replies[index], true
}

func (s *Session) send(f OutFrame) {
	err := s.client.Send(s.ctx, f)
	if err == nil || s.ctx.Err() != nil {
		return
	}
	s.log.Warn("sending frame", zap.String("type", f.Type), zap.Error(err))
	if errors.Is(err, errSlowClient) {
		s.cancel()
	}
}

func (s *Session) sendError(msg string) {
	s.send(OutFrame{Type: FrameError, Error: msg})
}

// record queues a finished message for the transcript. It never blocks:
// it runs on the render path.
func (s *Session) record(sender queue.Sender, text string, replies []string) {
	if s.transcripts == nil {
		return
	}
	s.recMu.Lock()
	s.pending = append(s.pending, pendingRecord{sender: sender, text: text, replies: replies})
	s.recMu.Unlock()

	select {
	case s.recReady <- struct{}{}:
	default:
	}
}

func (s *Session) recordLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.recReady:
			s.flushRecords()
		}
	}
}

// flushRecords writes queued messages in the order they finished.
func (s *Session) flushRecords() {
	s.recMu.Lock()
	batch := s.pending
	s.pending = nil
	s.recMu.Unlock()

	for _, r := range batch {
		_, err := s.transcripts.Append(context.WithoutCancel(s.ctx), s.ID, string(r.sender), r.text, r.replies)
		if err != nil {
			s.log.Error("recording message", zap.Error(err))
		}
	}
}

// transport hands user text to the bot.
type transport struct{ s *Session }

func (t transport) Emit(text string) error {
	return t.s.gateway.Submit(t.s.ctx, text)
}

// input clears and refocuses the widget's text field.
type input struct{ s *Session }

func (i input) ResetInput() {
	i.s.send(OutFrame{Type: FrameInputReset})
}
