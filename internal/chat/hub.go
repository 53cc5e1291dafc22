package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ziadkadry99/webchat/internal/bots"
)

// LiveSession describes a connected widget.
type LiveSession struct {
	ID         string    `json:"id"`
	EndpointID string    `json:"endpoint_id"`
	StartedAt  time.Time `json:"started_at"`
	State      string    `json:"state"`
	Pending    int       `json:"pending"`
}

// Hub tracks live sessions.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub. Sessions started from it end when Close
// is called.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{ctx: ctx, cancel: cancel, sessions: make(map[string]*Session)}
}

// Context is the parent context of all sessions.
func (h *Hub) Context() context.Context { return h.ctx }

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	if h.sessions[s.ID] == s {
		delete(h.sessions, s.ID)
	}
	h.mu.Unlock()
}

// Get returns the live session with id.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// List returns live sessions, oldest first, optionally for one endpoint.
func (h *Hub) List(endpointID string) []LiveSession {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if endpointID == "" || s.EndpointID == endpointID {
			sessions = append(sessions, s)
		}
	}
	h.mu.RUnlock()

	out := make([]LiveSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, LiveSession{
			ID:         s.ID,
			EndpointID: s.EndpointID,
			StartedAt:  s.StartedAt,
			State:      s.State().String(),
			Pending:    s.Pending(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Push renders replies in the live session id.
func (h *Hub) Push(id string, replies []bots.Reply) error {
	s, ok := h.Get(id)
	if !ok {
		return bots.ErrUnknownSession
	}
	s.Push(replies)
	return nil
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close ends every live session.
func (h *Hub) Close() {
	h.cancel()
}
