package ai

import (
	"fmt"

	"github.com/DachengChen/sqlsage/config"
)

// SupportedProviders lists available provider names for display.
var SupportedProviders = []string{"openai", "anthropic", "gemini", "ollama", "offline"}

// NewProvider creates an AI provider from the application config.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	sampling := Sampling{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not set. Set OPENAI_API_KEY env var or add it to ~/.sqlsage/config.json")
		}
		return NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, sampling), nil

	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key not set. Set ANTHROPIC_API_KEY env var or add it to ~/.sqlsage/config.json")
		}
		return NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, sampling), nil

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key not set. Set GEMINI_API_KEY env var or add it to ~/.sqlsage/config.json")
		}
		return NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model, sampling), nil

	case "ollama":
		return NewOllama(cfg.Ollama.Host, cfg.Ollama.Model, sampling), nil

	case "offline", "":
		return NewOffline(), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q. Supported: openai, anthropic, gemini, ollama, offline", cfg.Provider)
	}
}
