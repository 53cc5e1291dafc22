package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/webchat/internal/bots"
	"github.com/ziadkadry99/webchat/internal/chat"
	"github.com/ziadkadry99/webchat/internal/config"
	"github.com/ziadkadry99/webchat/internal/db"
	"github.com/ziadkadry99/webchat/internal/endpoint"
	"github.com/ziadkadry99/webchat/internal/logger"
	mcpserver "github.com/ziadkadry99/webchat/internal/mcp"
	"github.com/ziadkadry99/webchat/internal/server"
	"github.com/ziadkadry99/webchat/internal/transcript"
	"github.com/ziadkadry99/webchat/internal/typewriter"
	"github.com/ziadkadry99/webchat/internal/widget"
)

var (
	serverPort int
	serverDev  bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the webchat gateway",
	Long: `Starts the webchat gateway: the widget assets and demo page, the widget
websocket, the endpoint and transcript admin API, the bot push API and the
MCP endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		if serverDev {
			cfg.DevMode = true
		}

		log := newLogger(cfg)
		defer log.Sync()

		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Host:       cfg.Server.Host,
			Port:       cfg.Server.Port,
			AllowAll:   cfg.Server.AllowAllOrigins || cfg.DevMode,
			AdminToken: cfg.Server.AdminToken,
		}, log)

		hub := chat.NewHub()
		typer := typewriter.New(cfg.Typewriter.Tick)
		registerAllRoutes(srv, database, hub, typer, cfg, log)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			log.Info("shutting down server", zap.Int("live_sessions", hub.Len()))
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("server shutdown")
			}
		}()

		log.Info("webchat server starting",
			zap.String("version", Version),
			zap.String("addr", srv.Addr()),
			zap.String("database", database.Path()),
			zap.Bool("dev_mode", cfg.DevMode),
			zap.Duration("typewriter_tick", typer.Tick()),
		)
		if cfg.Server.AdminToken == "" {
			log.Warn("admin API is unauthenticated; set server.admin_token")
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// registerAllRoutes wires up the gateway's feature routes.
func registerAllRoutes(srv *server.Server, database *db.DB, hub *chat.Hub, typer *typewriter.Typewriter, cfg *config.Config, log *logger.Logger) {
	api := srv.API()
	admin := srv.Admin()

	// Widget assets and demo page
	widget.RegisterRoutes(api)

	// Endpoints
	endpointStore := endpoint.NewStore(database)
	resolver := endpoint.Resolver{Store: endpointStore, DevMode: cfg.DevMode}
	endpoint.RegisterRoutes(api, resolver, admin)

	// Transcripts
	transcriptStore := transcript.NewStore(database)
	transcript.RegisterRoutes(api, transcriptStore, admin)

	// Bots
	factory := bots.NewFactory(bots.Deps{
		LLM:            createLLMProviderFromConfig(cfg, log),
		History:        cfg.LLM.History,
		WebhookSecret:  cfg.Webhook.Secret,
		WebhookTimeout: cfg.Webhook.Timeout,
	})
	// Pushes are authenticated by their signature; unsigned ones need the admin token.
	pushRoutes := api
	if cfg.Webhook.Secret == "" {
		pushRoutes = api.With(admin)
	}
	bots.RegisterRoutes(pushRoutes, bots.NewPushHandler(hub, cfg.Webhook.Secret))

	// Live admin view of connected widgets
	api.With(admin).Get("/api/live", func(w http.ResponseWriter, r *http.Request) {
		live := hub.List(r.URL.Query().Get("endpoint"))
		if live == nil {
			live = []chat.LiveSession{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(live)
	})

	// MCP (streamable HTTP)
	mcp := mcpserver.NewServer(hub, transcriptStore)
	srv.Router().Group(func(r chi.Router) {
		r.Use(admin)
		r.Handle(mcpserver.Path, mcp.Handler())
	})

	// Widget websocket; long-lived, so outside the API timeout.
	ws := chat.NewHandler(hub, resolver, factory, typer, transcriptStore, chat.Options{
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
		Limits: chat.Limits{
			RatePerSecond: cfg.Chat.RatePerSecond,
			Burst:         cfg.Chat.Burst,
			MaxMessageLen: cfg.Chat.MaxMessageLen,
		},
	}, log)
	srv.Router().Handle("/ws", ws)
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	serverCmd.Flags().BoolVar(&serverDev, "dev", false, "Enable dev mode (dev test bot on unknown endpoints)")
	rootCmd.AddCommand(serverCmd)
}
