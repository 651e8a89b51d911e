package ai

import (
	"context"
	"fmt"
)

const defaultPlanRetries = 3

// Planner turns a question into a validated analysis plan. Malformed
// replies are retried with a fresh request; models usually produce
// valid JSON on the second try.
type Planner struct {
	Provider Provider

	// Retries caps plan requests, parse failures included. 0 means 3.
	Retries int
}

// Plan requests, parses, and validates an analysis plan.
func (p *Planner) Plan(ctx context.Context, question, schemaContext string) (*Plan, error) {
	retries := p.Retries
	if retries <= 0 {
		retries = defaultPlanRetries
	}

	user := fmt.Sprintf("Schema:\n%s\n\nQuestion: %s", schemaContext, question)

	var lastErr error
	for i := 0; i < retries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logRequest("Plan", p.Provider.Name(), map[string]string{
			"Question": question,
			"Schema":   schemaContext,
		})
		reply, err := p.Provider.Chat(ctx, []Message{
			{Role: "system", Content: systemPromptPlan},
			{Role: "user", Content: user},
		})
		logResponse("Plan", reply, err)
		if err != nil {
			lastErr = err
			continue
		}

		plan, perr := ParsePlan(reply)
		if perr != nil {
			lastErr = perr
			continue
		}
		return plan, nil
	}
	return nil, fmt.Errorf("plan generation failed after %d attempts: %w", retries, lastErr)
}
