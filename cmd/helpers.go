package cmd

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/webchat/internal/config"
	"github.com/ziadkadry99/webchat/internal/db"
	"github.com/ziadkadry99/webchat/internal/llm"
	"github.com/ziadkadry99/webchat/internal/logger"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `webchat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug level. A
// log output that cannot be opened falls back to the stderr logger.
func newLogger(cfg *config.Config) *logger.Logger {
	lc := cfg.Log
	if verbose {
		lc.Level = "debug"
	}
	log, err := logger.New(lc)
	if err != nil {
		log = logger.Default()
		log.WithError(err).Warn("falling back to stderr logging")
	}
	return log
}

// openDB opens the sqlite database under the data dir, creating the dir.
func openDB(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", cfg.DataDir, err)
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// createLLMProviderFromConfig creates the provider for the llm flow. The
// gateway runs without one; endpoints using the llm flow then refuse
// connections.
func createLLMProviderFromConfig(cfg *config.Config, log *logger.Logger) llm.Provider {
	if cfg.LLM.Provider == "" {
		return nil
	}
	p, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		log.WithError(err).Warn("llm flow disabled")
		return nil
	}
	return p
}
