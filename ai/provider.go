// Package ai turns natural-language questions into analysis plans and
// SQL statements, and repairs statements the engines reject.
//
// Design decisions:
//   - Provider is an interface so backends (OpenAI, Anthropic, Gemini,
//     Ollama, offline) swap without changing pipeline code.
//   - Providers only chat. Planning, generation, and correction live in
//     dedicated types that build prompts and parse replies, so prompt
//     logic is written once instead of once per backend.
//   - All calls accept context for cancellation (async-friendly).
package ai

import (
	"context"
	"net/http"
	"time"
)

// Message represents a chat message.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Provider is the interface all AI backends must implement.
type Provider interface {
	// Chat sends a conversation and returns the assistant's reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider name for display.
	Name() string
}

// Sampling tunes how deterministic replies should be. SQL has to come
// out the same way twice, so the defaults sit well below what hosted
// chat UIs use. Zero values mean "use the default".
type Sampling struct {
	Temperature float64
	MaxTokens   int
}

func (s Sampling) normalize() Sampling {
	if s.Temperature <= 0 {
		s.Temperature = 0.2
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 4096
	}
	return s
}

// splitSystem separates the system prompt from the conversation. Each
// backend wants the system text in a different place; all of them fall
// back to the default prompt when the caller sent none.
func splitSystem(messages []Message) (string, []Message) {
	system := systemPromptChat
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// httpClient bounds hung provider calls even when the caller's context
// carries no deadline.
var httpClient = &http.Client{Timeout: 2 * time.Minute}
