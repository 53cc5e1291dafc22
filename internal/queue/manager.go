// Package queue serializes chat messages into a one-at-a-time render
// sequence. Bot messages are revealed with a typewriter animation; user
// messages render at once. A message starts rendering only after the
// previous one, including its quick replies, has finished.
package queue

import (
	"context"
	"sync"

	"github.com/ziadkadry99/webchat/internal/typewriter"
)

// State is the render state of a Manager.
type State int

const (
	// StateIdle means nothing is rendering and the backlog may be drained.
	StateIdle State = iota
	// StateRendering means exactly one message is being rendered.
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Manager owns the backlog of one chat widget instance.
//
// Transitions:
//
//	Enqueue            Idle -> Rendering (when the backlog was drained) | append only
//	character tick     Rendering -> Rendering
//	animation complete Rendering -> Idle, then Rendering again if backlog is non-empty
type Manager struct {
	typer  *typewriter.Typewriter
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	backlog []Message
	state   State
	closed  bool
}

// New creates an idle Manager that animates bot messages with typer.
func New(typer *typewriter.Typewriter) *Manager {
	if typer == nil {
		typer = typewriter.New(typewriter.DefaultTick)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		typer:  typer,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enqueue appends msg to the backlog and starts rendering if idle. A user
// message enqueued on an idle manager is fully rendered when Enqueue returns.
func (m *Manager) Enqueue(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.backlog = append(m.backlog, msg)
	m.drainLocked()
}

// State reports whether a message is currently rendering.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending returns the number of messages waiting behind the current one.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.backlog)
}

// Close aborts the message being animated, drops the backlog and makes
// later Enqueue calls no-ops. It waits for the animation to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.backlog = nil
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) drain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drainLocked()
}

// drainLocked renders backlog entries until one of them has to animate.
// It is a no-op while rendering, when the backlog is empty or after Close.
func (m *Manager) drainLocked() {
	for !m.closed && m.state == StateIdle && len(m.backlog) > 0 {
		msg := m.backlog[0]
		m.backlog[0] = Message{}
		m.backlog = m.backlog[1:]

		if msg.Target == nil {
			continue
		}

		m.state = StateRendering
		bubble := msg.Target.NewBubble(msg.Sender)
		msg.Target.ScrollToBottom()

		if msg.Sender == SenderBot {
			m.wg.Add(1)
			go m.animate(msg, bubble)
			return
		}

		bubble.SetText(msg.Text)
		bubble.Finish()
		m.state = StateIdle
	}
}

func (m *Manager) animate(msg Message, bubble Bubble) {
	defer m.wg.Done()

	// A canceled animation leaves the manager closed; nothing to restore.
	_ = m.typer.Apply(m.ctx, scrollingBubble{bubble, msg.Target}, msg.Text, func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.closed {
			return
		}
		m.attachQuickReplies(bubble, msg)
		bubble.Finish()
		m.state = StateIdle
		m.drainLocked()
	})
}

// scrollingBubble keeps the container scrolled while characters are
// revealed into the bubble.
type scrollingBubble struct {
	Bubble
	surface Surface
}

func (b scrollingBubble) ScrollToBottom() { b.surface.ScrollToBottom() }

func (m *Manager) attachQuickReplies(bubble Bubble, msg Message) {
	if len(msg.QuickReplies) == 0 || msg.Reply == nil || msg.Reply.Transport == nil {
		return
	}

	replies := make([]QuickReply, 0, len(msg.QuickReplies))
	for _, label := range msg.QuickReplies {
		replies = append(replies, QuickReply{
			Label: label,
			activate: func() error {
				return m.activateReply(msg, label)
			},
		})
	}
	bubble.AttachQuickReplies(replies)
}

func (m *Manager) activateReply(origin Message, label string) error {
	m.Enqueue(Message{
		Target: origin.Target,
		Text:   label,
		Sender: SenderUser,
		Reply:  origin.Reply,
	})
	err := origin.Reply.Transport.Emit(label)
	if origin.Reply.Input != nil {
		origin.Reply.Input.ResetInput()
	}
	return err
}
