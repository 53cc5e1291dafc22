package config

import (
	"time"

	"github.com/ziadkadry99/webchat/internal/logger"
)

// LLMProvider identifies the backend used by the llm bot flow.
type LLMProvider string

const (
	LLMOpenAI LLMProvider = "openai"
	LLMOllama LLMProvider = "ollama"
)

// Config is the top-level webchat configuration, corresponding to .webchat.yml.
type Config struct {
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`
	DevMode    bool             `yaml:"dev_mode" koanf:"dev_mode"`
	Typewriter TypewriterConfig `yaml:"typewriter" koanf:"typewriter"`
	Chat       ChatConfig       `yaml:"chat" koanf:"chat"`
	LLM        LLMConfig        `yaml:"llm" koanf:"llm"`
	Webhook    WebhookConfig    `yaml:"webhook" koanf:"webhook"`
	Log        logger.Config    `yaml:"log" koanf:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string `yaml:"host" koanf:"host"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AdminToken      string `yaml:"admin_token" koanf:"admin_token"`
}

// TypewriterConfig controls the bot message animation.
type TypewriterConfig struct {
	Tick time.Duration `yaml:"tick" koanf:"tick"`
}

// ChatConfig limits what a single widget connection may send.
type ChatConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" koanf:"rate_per_second"`
	Burst         int     `yaml:"burst" koanf:"burst"`
	MaxMessageLen int     `yaml:"max_message_len" koanf:"max_message_len"`
}

// LLMConfig configures the llm bot flow.
type LLMConfig struct {
	Provider          LLMProvider `yaml:"provider" koanf:"provider"`
	Model             string      `yaml:"model" koanf:"model"`
	BaseURL           string      `yaml:"base_url" koanf:"base_url"`
	RequestsPerMinute int         `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	History           int         `yaml:"history" koanf:"history"`
}

// WebhookConfig configures the webhook bot flow. When Secret is set,
// outgoing calls and incoming pushes are signed with HMAC-SHA256.
type WebhookConfig struct {
	Secret  string        `yaml:"secret" koanf:"secret"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "",
			Port: 8080,
		},
		DataDir: "data",
		Typewriter: TypewriterConfig{
			Tick: 20 * time.Millisecond,
		},
		Chat: ChatConfig{
			RatePerSecond: 2,
			Burst:         5,
			MaxMessageLen: 2000,
		},
		LLM: LLMConfig{
			Provider:          LLMOpenAI,
			Model:             "gpt-4o-mini",
			RequestsPerMinute: 60,
			History:           10,
		},
		Webhook: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
