package llm

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/webchat/internal/config"
)

// DefaultOllamaURL is the OpenAI-compatible endpoint of a local Ollama.
const DefaultOllamaURL = "http://localhost:11434/v1"

// NewProvider creates the provider described by cfg, rate limited to
// cfg.RequestsPerMinute.
// Supported provider types: "openai", "ollama".
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	var p *OpenAIProvider
	switch cfg.Provider {
	case config.LLMOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(cfg.Provider))
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", config.APIKeyEnvVar(cfg.Provider))
		}
		p = NewOpenAIProvider(apiKey, cfg.Model, cfg.BaseURL)

	case config.LLMOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_HOST")
		}
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		// Ollama ignores the key but the client sends one.
		p = NewOpenAIProvider("ollama", cfg.Model, baseURL)
		p.name = "ollama"

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
	return NewRateLimitedProvider(p, cfg.RequestsPerMinute), nil
}
