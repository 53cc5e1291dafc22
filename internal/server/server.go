package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/webchat/internal/logger"
)

// Config holds server configuration.
type Config struct {
	Host       string
	Port       int
	AllowAll   bool   // allow all CORS origins
	AdminToken string // bearer token for admin routes; empty disables the check
}

// Server is the webchat gateway HTTP server.
type Server struct {
	cfg        Config
	log        *logger.Logger
	router     chi.Router
	api        chi.Router
	httpServer *http.Server
}

// New creates a Server with the shared middleware stack installed.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, log: log}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router. Routes that hold a
// connection open (the chat websocket) go on Router(); request/response
// routes go on API(), which adds a timeout.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.Recoverer)

	// Widget assets and settings are fetched from whatever site embeds the
	// widget. Per-endpoint origin rules are enforced on the websocket.
	corsOpts := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Webchat-Request-Timestamp", "X-Webchat-Signature"},
		MaxAge:         300,
	}
	if !s.cfg.AllowAll {
		corsOpts.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return isPublicPath(r.URL.Path)
		}
	}
	r.Use(cors.Handler(corsOpts))

	s.api = r.With(middleware.Timeout(60 * time.Second))

	s.api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// isPublicPath reports whether path is fetched by the embedded widget.
func isPublicPath(path string) bool {
	switch path {
	case "/widget.js", "/widget.css", "/healthz":
		return true
	}
	return strings.HasPrefix(path, "/api/endpoints/") && strings.HasSuffix(path, "/settings")
}

// Router returns the root router, for long-lived routes.
func (s *Server) Router() chi.Router { return s.router }

// API returns the router for request/response routes.
func (s *Server) API() chi.Router { return s.api }

// Admin returns the middleware guarding admin routes.
func (s *Server) Admin() func(http.Handler) http.Handler {
	return RequireToken(s.cfg.AdminToken)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start begins listening on the configured address. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := s.Addr()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("webchat server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server. Hijacked websocket
// connections are not tracked by net/http and must be closed by their owner.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// RequireToken rejects requests that do not carry "Authorization: Bearer
// <token>". An empty token disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="webchat"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with zap.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
