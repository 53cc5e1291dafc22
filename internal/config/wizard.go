package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to webchat! Let's configure your gateway.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Listener.
	portPrompt := promptui.Prompt{
		Label:    "Port to listen on",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the database",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Typewriter speed.
	tickPrompt := promptui.Prompt{
		Label:    "Typewriter delay per character",
		Default:  cfg.Typewriter.Tick.String(),
		Validate: validateTick,
	}
	tickStr, err := tickPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("typewriter tick: %w", err)
	}
	cfg.Typewriter.Tick, _ = time.ParseDuration(tickStr)

	// 4. LLM backend for the llm flow.
	providerPrompt := promptui.Select{
		Label: "LLM backend for the llm bot flow",
		Items: []string{
			"openai (hosted OpenAI API)",
			"ollama (local OpenAI-compatible server)",
		},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("llm provider selection: %w", err)
	}
	providers := []LLMProvider{LLMOpenAI, LLMOllama}
	cfg.LLM.Provider = providers[idx]
	if cfg.LLM.Provider == LLMOllama {
		cfg.LLM.Model = "llama3"
		cfg.LLM.BaseURL = "http://localhost:11434/v1"
	}

	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: cfg.LLM.Model,
	}
	if cfg.LLM.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 5. Dev mode.
	devPrompt := promptui.Prompt{
		Label:     "Enable dev mode (dev test bot on unknown endpoints)",
		IsConfirm: true,
	}
	if _, err := devPrompt.Run(); err == nil {
		cfg.DevMode = true
	}

	if envVar := APIKeyEnvVar(cfg.LLM.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before using the llm flow.\n", envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 0 and 65535")
	}
	return nil
}

func validateTick(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("enter a positive duration such as 20ms")
	}
	return nil
}
