package ai

import (
	"context"
	"fmt"
	"strings"
)

// Generator writes SQL for plan steps and optionally tightens it up.
type Generator struct {
	Provider Provider
}

// Generate produces one read-only statement for a plan step task.
func (g *Generator) Generate(ctx context.Context, task, schemaContext string) (string, error) {
	user := fmt.Sprintf("Schema:\n%s\n\nTask: %s", schemaContext, task)

	logRequest("GenerateSQL", g.Provider.Name(), map[string]string{
		"Task":   task,
		"Schema": schemaContext,
	})
	reply, err := g.Provider.Chat(ctx, []Message{
		{Role: "system", Content: systemPromptGenerate},
		{Role: "user", Content: user},
	})
	logResponse("GenerateSQL", reply, err)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	sql := CleanSQL(reply)
	if sql == "" {
		return "", fmt.Errorf("generate sql: provider returned no statement")
	}
	return sql, nil
}

// Optimize asks for a more efficient equivalent. Best-effort: the input
// comes back unchanged when the provider fails or replies with anything
// that is not a statement.
func (g *Generator) Optimize(ctx context.Context, sql, schemaContext string) string {
	user := fmt.Sprintf("Schema:\n%s\n\nSQL:\n%s", schemaContext, sql)

	logRequest("OptimizeSQL", g.Provider.Name(), map[string]string{"SQL": sql})
	reply, err := g.Provider.Chat(ctx, []Message{
		{Role: "system", Content: systemPromptOptimize},
		{Role: "user", Content: user},
	})
	logResponse("OptimizeSQL", reply, err)
	if err != nil {
		return sql
	}

	out := CleanSQL(reply)
	if out == "" || !selectLike(out) {
		return sql
	}
	return out
}

// selectLike reports whether s starts a read-only statement.
func selectLike(s string) bool {
	up := strings.ToUpper(strings.TrimSpace(s))
	return strings.HasPrefix(up, "SELECT") || strings.HasPrefix(up, "WITH")
}
