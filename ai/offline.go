package ai

import (
	"context"
	"strings"
)

// Offline is a canned provider for demos and tests: deterministic
// replies, no network, no credentials. It recognizes the pipeline's
// prompt roles by their system prompt openers and answers each with a
// minimal valid artifact, so a fresh install can walk the whole
// pipeline before any API key is configured.
type Offline struct{}

var _ Provider = (*Offline)(nil)

// NewOffline creates the offline provider.
func NewOffline() *Offline {
	return &Offline{}
}

func (o *Offline) Name() string {
	return "Offline (canned)"
}

const offlinePlan = `{
  "goal": "Walk the analysis pipeline end to end with a connectivity probe",
  "steps": [
    {
      "step_id": 1,
      "step_name": "probe",
      "description": "Run a minimal aggregation to verify the engine responds",
      "tool_needed": "sql_executor",
      "reasoning": "A trivial statement exercises the full execution path"
    }
  ],
  "risk_assessment": "None; the canned plan touches no real data"
}`

const offlineSQL = "SELECT 1 AS probe LIMIT 1"

const offlineChatReply = `Offline provider: canned responses only. Configure an AI provider in ~/.sqlsage/config.json (or set OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY) for real analyses.`

func (o *Offline) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var system, lastUser string
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = m.Content
		case "user":
			lastUser = m.Content
		}
	}

	switch {
	case strings.Contains(system, "analysis planner"):
		return offlinePlan, nil
	case strings.Contains(system, "SQL generator"):
		return offlineSQL, nil
	case strings.Contains(system, "SQL repair"):
		return offlineSQL, nil
	case strings.Contains(system, "SQL reviewer"):
		// Hand the statement back untouched.
		if idx := strings.LastIndex(lastUser, "SQL:\n"); idx >= 0 {
			return strings.TrimSpace(lastUser[idx+len("SQL:\n"):]), nil
		}
		return "", nil
	default:
		return offlineChatReply, nil
	}
}
