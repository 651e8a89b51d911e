package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/executor"
	"github.com/DachengChen/sqlsage/knowledge"
	"github.com/DachengChen/sqlsage/session"
)

// Corrector repairs failed statements with a provider, grounding each
// repair in the session's failure history and similar known cases so
// the model stops re-proposing variants that were already rejected.
type Corrector struct {
	Provider Provider

	// Schema is the schema context block of the engine chain's primary.
	Schema string

	// Memory supplies recent failures. Optional.
	Memory *session.Memory

	// Knowledge supplies known similar cases. Optional.
	Knowledge *knowledge.Base
}

var _ executor.Corrector = (*Corrector)(nil)

// failureHistoryDepth is how many recent failures feed the prompt.
const failureHistoryDepth = 3

// Correct builds the repair prompt and returns cleaned SQL.
func (c *Corrector) Correct(ctx context.Context, req executor.Correction) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Engine: %s\nError kind: %s\nError: %s\n\nFailed SQL:\n%s\n",
		req.Engine, req.Kind, req.Message, req.SQL)

	if c.Memory != nil {
		if fc := c.Memory.FailureContext(failureHistoryDepth); fc != "" {
			fmt.Fprintf(&b, "\nRecent failures:\n%s", fc)
		}
	}
	if c.Knowledge != nil {
		if cases := c.Knowledge.Search(req.Message, 2); len(cases) > 0 {
			b.WriteString("\nKnown similar cases:\n")
			for _, kc := range cases {
				fmt.Fprintf(&b, "- error: %s\n  fix: %s\n", kc.Error, kc.Fix)
			}
		}
	}
	if c.Schema != "" {
		fmt.Fprintf(&b, "\nSchema:\n%s", c.Schema)
	}
	fmt.Fprintf(&b, "\nThis is correction attempt %d on this engine. Return only the corrected SQL.", req.Attempt)

	logRequest("CorrectSQL", c.Provider.Name(), map[string]string{"Request": b.String()})
	reply, err := c.Provider.Chat(ctx, []Message{
		{Role: "system", Content: systemPromptCorrect},
		{Role: "user", Content: b.String()},
	})
	logResponse("CorrectSQL", reply, err)
	if err != nil {
		return "", fmt.Errorf("correct sql: %w", err)
	}

	sql := CleanSQL(reply)
	if sql == "" {
		return "", fmt.Errorf("correct sql: provider returned no statement")
	}
	return sql, nil
}
