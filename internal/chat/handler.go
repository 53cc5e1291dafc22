package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/webchat/internal/bots"
	"github.com/ziadkadry99/webchat/internal/endpoint"
	"github.com/ziadkadry99/webchat/internal/logger"
	"github.com/ziadkadry99/webchat/internal/transcript"
	"github.com/ziadkadry99/webchat/internal/typewriter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked against the endpoint before upgrading.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Options configure the websocket handler.
type Options struct {
	AllowAllOrigins bool
	Limits          Limits
}

// Handler upgrades widget connections at /ws?endpoint=ID and runs a
// session for each.
type Handler struct {
	hub         *Hub
	resolver    endpoint.Resolver
	bots        *bots.Factory
	typer       *typewriter.Typewriter
	transcripts *transcript.Store
	opts        Options
	log         *logger.Logger
}

// NewHandler creates the websocket handler. transcripts may be nil.
func NewHandler(hub *Hub, resolver endpoint.Resolver, factory *bots.Factory, typer *typewriter.Typewriter,
	transcripts *transcript.Store, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		hub:         hub,
		resolver:    resolver,
		bots:        factory,
		typer:       typer,
		transcripts: transcripts,
		opts:        opts,
		log:         log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpointID := r.URL.Query().Get("endpoint")
	if endpointID == "" {
		http.Error(w, "endpoint is required", http.StatusBadRequest)
		return
	}

	settings, err := h.resolver.Resolve(r, endpointID)
	if errors.Is(err, endpoint.ErrNotFound) {
		http.Error(w, "unknown endpoint", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("resolving endpoint", zap.String("endpoint_id", endpointID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !originAllowed(r, settings.AllowedOrigins, h.opts.AllowAllOrigins) {
		h.log.Warn("origin rejected", zap.String("endpoint_id", endpointID), zap.String("origin", r.Header.Get("Origin")))
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	responder, err := h.bots.For(*settings)
	if err != nil {
		h.log.Error("building responder", zap.String("endpoint_id", endpointID), zap.Error(err))
		http.Error(w, "bot unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	id := uuid.New().String()
	log := h.log.WithSession(id).WithEndpoint(endpointID)

	if h.transcripts != nil {
		if _, err := h.transcripts.CreateSession(r.Context(), id, endpointID, r.RemoteAddr); err != nil {
			log.Error("recording session start", zap.Error(err))
		}
	}

	s := NewSession(h.hub.Context(), SessionConfig{
		ID:          id,
		Settings:    *settings,
		Client:      NewClient(conn, log),
		Responder:   responder,
		Typewriter:  h.typer,
		Transcripts: h.transcripts,
		Limits:      h.opts.Limits,
		Log:         h.log,
	})

	h.hub.register(s)
	log.Info("session started", zap.String("remote_addr", r.RemoteAddr))

	if err := s.Run(); err != nil {
		log.Warn("session ended with error", zap.Error(err))
	}

	h.hub.unregister(s)
	if h.transcripts != nil {
		if err := h.transcripts.EndSession(context.Background(), id); err != nil {
			log.Error("recording session end", zap.Error(err))
		}
	}
	log.Info("session ended")
}
