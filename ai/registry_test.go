package ai

import (
	"strings"
	"testing"

	"github.com/DachengChen/sqlsage/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AIConfig
		wantName string
		wantErr  string
	}{
		{
			name:     "default is offline",
			cfg:      config.AIConfig{},
			wantName: "Offline (canned)",
		},
		{
			name:     "explicit offline",
			cfg:      config.AIConfig{Provider: "offline"},
			wantName: "Offline (canned)",
		},
		{
			name:    "openai without key",
			cfg:     config.AIConfig{Provider: "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "anthropic without key",
			cfg:     config.AIConfig{Provider: "anthropic"},
			wantErr: "ANTHROPIC_API_KEY",
		},
		{
			name:    "gemini without key",
			cfg:     config.AIConfig{Provider: "gemini"},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name: "openai with key",
			cfg: config.AIConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o"},
			},
			wantName: "OpenAI",
		},
		{
			name:     "ollama needs no key",
			cfg:      config.AIConfig{Provider: "ollama"},
			wantName: "Ollama",
		},
		{
			name:    "unknown provider",
			cfg:     config.AIConfig{Provider: "cohere"},
			wantErr: `unknown AI provider "cohere"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error: %v", err)
			}
			if !strings.Contains(p.Name(), tt.wantName) {
				t.Errorf("Name() = %q, want contains %q", p.Name(), tt.wantName)
			}
		})
	}
}
