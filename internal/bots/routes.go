package bots

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// ErrUnknownSession is returned by a Pusher for sessions that are not live.
var ErrUnknownSession = errors.New("session is not live")

// PushHandler lets webhook bots send messages to a live session at any
// time, not only in answer to a user message.
type PushHandler struct {
	pusher Pusher
	secret string
	now    func() time.Time
}

// NewPushHandler creates a push handler. With a non-empty secret every
// push must carry a valid signature.
func NewPushHandler(pusher Pusher, secret string) *PushHandler {
	return &PushHandler{pusher: pusher, secret: secret, now: time.Now}
}

// RegisterRoutes mounts the bot push endpoint on the given router.
func RegisterRoutes(r chi.Router, push *PushHandler) {
	r.Post("/api/bots/sessions/{id}/messages", push.HandlePush)
}

// HandlePush accepts a MessagesPayload for the session in the URL.
func (h *PushHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if h.secret != "" && !verifySignature(r, h.secret, body, h.now()) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload MessagesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(payload.Messages) == 0 {
		http.Error(w, "messages is required", http.StatusBadRequest)
		return
	}

	if err := h.pusher.Push(chi.URLParam(r, "id"), payload.Messages); err != nil {
		if errors.Is(err, ErrUnknownSession) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "push failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]int{"accepted": len(payload.Messages)})
}
