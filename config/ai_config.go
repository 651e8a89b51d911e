// Package config — AI provider configuration.
//
// AI settings are stored in ~/.sqlsage/config.json alongside the engine
// definitions. API keys can also be set via environment variables
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, OLLAMA_HOST).
package config

import "os"

// AIConfig holds the AI provider selection and credentials.
type AIConfig struct {
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "ollama", "offline"

	// Temperature and MaxTokens apply to every backend. Zero means the
	// built-in default (low temperature; SQL should be reproducible).
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	OpenAI    OpenAIConfig    `json:"openai"`
	Anthropic AnthropicConfig `json:"anthropic"`
	Gemini    GeminiConfig    `json:"gemini"`
	Ollama    OllamaConfig    `json:"ollama"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// GeminiConfig holds Google Gemini-specific settings.
type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `json:"host"`
	Model string `json:"model"`
}

// DefaultAIConfig returns sensible defaults. The offline provider
// answers with canned responses and needs no credentials, so a fresh
// install works before any key is configured.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Provider:    "offline",
		Temperature: 0.2,
		MaxTokens:   4096,
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-20250514",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Ollama: OllamaConfig{
			Host:  "http://localhost:11434",
			Model: "llama3.2",
		},
	}
}

// applyEnv lets environment variables override stored credentials.
func (c *Config) applyEnv() {
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		c.AI.OpenAI.APIKey = envKey
	}
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		c.AI.Anthropic.APIKey = envKey
	}
	if envKey := os.Getenv("GEMINI_API_KEY"); envKey != "" {
		c.AI.Gemini.APIKey = envKey
	}
	if envHost := os.Getenv("OLLAMA_HOST"); envHost != "" {
		c.AI.Ollama.Host = envHost
	}
}
