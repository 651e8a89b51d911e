package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateCleansReply(t *testing.T) {
	sp := &scriptProvider{replies: []string{
		"Here you go:\n```sql\nSELECT region, sum(revenue) AS total\nFROM sales\nGROUP BY region\nLIMIT 10;\n```",
	}}
	g := &Generator{Provider: sp}

	sql, err := g.Generate(context.Background(), "sum revenue by region", "Table: sales")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := "SELECT region, sum(revenue) AS total FROM sales GROUP BY region LIMIT 10"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if user := sp.lastUser(0); !strings.Contains(user, "Table: sales") {
		t.Errorf("prompt missing schema: %q", user)
	}
}

func TestGenerateEmptyReplyFails(t *testing.T) {
	g := &Generator{Provider: &scriptProvider{replies: []string{"-- hmm, not sure"}}}

	_, err := g.Generate(context.Background(), "task", "schema")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no statement") {
		t.Errorf("error = %q", err)
	}
}

func TestGenerateProviderErrorFails(t *testing.T) {
	sp := &scriptProvider{replies: []string{""}, errs: []error{errors.New("boom")}}
	g := &Generator{Provider: sp}

	_, err := g.Generate(context.Background(), "task", "schema")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want wrapped provider error", err)
	}
}

func TestOptimizeAdoptsBetterStatement(t *testing.T) {
	sp := &scriptProvider{replies: []string{"```sql\nSELECT id FROM t WHERE id > 5 LIMIT 10\n```"}}
	g := &Generator{Provider: sp}

	got := g.Optimize(context.Background(), "SELECT id FROM t LIMIT 10", "schema")
	if got != "SELECT id FROM t WHERE id > 5 LIMIT 10" {
		t.Errorf("Optimize() = %q", got)
	}
}

func TestOptimizeKeepsInputOnFailure(t *testing.T) {
	const in = "SELECT count(*) FROM t LIMIT 1"
	tests := []struct {
		name string
		sp   *scriptProvider
	}{
		{"provider error", &scriptProvider{replies: []string{""}, errs: []error{errors.New("down")}}},
		{"prose reply", &scriptProvider{replies: []string{"that query is already optimal"}}},
		{"non select reply", &scriptProvider{replies: []string{"EXPLAIN ANALYZE SELECT 1"}}},
		{"empty reply", &scriptProvider{replies: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{Provider: tt.sp}
			if got := g.Optimize(context.Background(), in, "schema"); got != in {
				t.Errorf("Optimize() = %q, want input back", got)
			}
		})
	}
}

func TestOptimizeAcceptsCTE(t *testing.T) {
	sp := &scriptProvider{replies: []string{"WITH top AS (SELECT 1) SELECT * FROM top LIMIT 1"}}
	g := &Generator{Provider: sp}

	got := g.Optimize(context.Background(), "SELECT 1 LIMIT 1", "schema")
	if !strings.HasPrefix(got, "WITH top") {
		t.Errorf("Optimize() = %q, want CTE adopted", got)
	}
}
