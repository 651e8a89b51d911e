package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DachengChen/sqlsage/ai"
	"github.com/DachengChen/sqlsage/config"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/DachengChen/sqlsage/executor"
	"github.com/DachengChen/sqlsage/knowledge"
)

// stubEngine scripts Execute outcomes: errs are consumed first, then
// rows are returned forever.
type stubEngine struct {
	name   string
	rows   *engine.RowSet
	errs   []error
	schema *engine.Schema
	calls  []string
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Execute(ctx context.Context, sql string) (*engine.RowSet, error) {
	e.calls = append(e.calls, sql)
	if len(e.errs) > 0 {
		err := e.errs[0]
		e.errs = e.errs[1:]
		return nil, err
	}
	if e.rows == nil {
		return &engine.RowSet{Columns: []string{"n"}, Rows: [][]string{{"1"}}, RowCount: 1}, nil
	}
	return e.rows, nil
}

func (e *stubEngine) Schema(ctx context.Context) (*engine.Schema, error) {
	if e.schema == nil {
		return &engine.Schema{Engine: e.name, Tables: []engine.Table{
			{Name: "sales", Columns: []engine.Column{{Name: "region", DataType: "text"}}},
		}}, nil
	}
	return e.schema, nil
}

func (e *stubEngine) Close() {}

// stubProvider answers each pipeline role with configured payloads,
// sniffing the role from the system prompt the same way the offline
// provider does.
type stubProvider struct {
	plan     string
	sql      []string
	fixes    []string
	genCalls int
	fixCalls int
	planErr  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var system string
	for _, m := range msgs {
		if m.Role == "system" {
			system = m.Content
		}
	}
	switch {
	case strings.Contains(system, "analysis planner"):
		if p.planErr != nil {
			return "", p.planErr
		}
		return p.plan, nil
	case strings.Contains(system, "SQL generator"):
		i := p.genCalls
		p.genCalls++
		if i < len(p.sql) {
			return p.sql[i], nil
		}
		return "SELECT count(*) FROM sales LIMIT 1", nil
	case strings.Contains(system, "SQL repair"):
		i := p.fixCalls
		p.fixCalls++
		if i < len(p.fixes) {
			return p.fixes[i], nil
		}
		return "SELECT count(*) FROM sales LIMIT 1", nil
	case strings.Contains(system, "SQL reviewer"):
		// Echo so Optimize keeps the generated statement.
		if idx := strings.LastIndex(msgs[len(msgs)-1].Content, "SQL:\n"); idx >= 0 {
			return msgs[len(msgs)-1].Content[idx+len("SQL:\n"):], nil
		}
		return "", nil
	default:
		return "ok", nil
	}
}

func planJSON(steps ...string) string {
	type step struct {
		ID   int    `json:"step_id"`
		Name string `json:"step_name"`
		Desc string `json:"description"`
		Tool string `json:"tool_needed"`
	}
	var ss []step
	for i, tool := range steps {
		ss = append(ss, step{ID: i + 1, Name: fmt.Sprintf("step %d", i+1), Desc: "work item " + tool, Tool: tool})
	}
	out, _ := json.Marshal(map[string]any{"goal": "test goal", "steps": ss})
	return string(out)
}

func testAgent(t *testing.T, p ai.Provider, engines ...engine.Engine) *Agent {
	t.Helper()

	kb, err := knowledge.Load(filepath.Join(t.TempDir(), "knowledge.json"))
	if err != nil {
		t.Fatalf("knowledge.Load() error: %v", err)
	}

	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.HistoryStore = false

	return &Agent{
		cfg:       cfg,
		provider:  p,
		knowledge: kb,
		planner:   &ai.Planner{Provider: p},
		generator: &ai.Generator{Provider: p},
		engines:   engines,
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	rows := &engine.RowSet{
		Columns:  []string{"region", "total"},
		Rows:     [][]string{{"north", "10"}, {"south", "7"}},
		RowCount: 2,
	}
	eng := &stubEngine{name: "embedded", rows: rows}
	p := &stubProvider{plan: planJSON(ai.ToolSQL, ai.ToolPlot)}
	a := testAgent(t, p, eng)

	rep, err := a.Analyze(context.Background(), Request{Question: "totals by region?"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if rep.Status != executor.Succeeded {
		t.Errorf("status = %q", rep.Status)
	}
	if rep.Rows == nil || rep.Rows.RowCount != 2 {
		t.Errorf("rows = %+v", rep.Rows)
	}
	if rep.Plan == nil || len(rep.Plan.Steps) != 2 {
		t.Errorf("plan = %+v", rep.Plan)
	}
	if len(rep.Charts) != 1 {
		t.Fatalf("charts = %d, want 1", len(rep.Charts))
	}
	if rep.Charts[0].Path == "" {
		t.Error("chart artifact not saved")
	}
	if rep.SessionID == "" {
		t.Error("missing session id")
	}

	m := rep.Metrics
	if m.Steps != 2 || m.Runs != 1 || m.Attempts != 1 || m.Corrections != 0 {
		t.Errorf("metrics = %+v", m)
	}
	if len(rep.Attempts) != 1 || !rep.Attempts[0].Success {
		t.Errorf("attempts = %+v", rep.Attempts)
	}
}

func TestAnalyzeExhaustedStopsRemainingSteps(t *testing.T) {
	eng := &stubEngine{name: "embedded", errs: []error{
		engine.NewError(engine.KindResource, "embedded", "no such table: nothing"),
	}}
	p := &stubProvider{plan: planJSON(ai.ToolSQL, ai.ToolSQL)}
	a := testAgent(t, p, eng)
	a.cfg.Executor.EnableFallback = false

	rep, err := a.Analyze(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if rep.Status != executor.Exhausted {
		t.Fatalf("status = %q, want exhausted", rep.Status)
	}
	if rep.ErrKind != engine.KindResource {
		t.Errorf("err kind = %q", rep.ErrKind)
	}
	if rep.ErrMessage == "" {
		t.Error("missing err message")
	}
	// The second sql step must not run after exhaustion.
	if len(eng.calls) != 1 {
		t.Errorf("engine calls = %d, want 1", len(eng.calls))
	}
	if rep.Metrics.Steps != 1 {
		t.Errorf("steps counted = %d, want 1", rep.Metrics.Steps)
	}
}

func TestAnalyzeRecordsSuccessfulCorrection(t *testing.T) {
	eng := &stubEngine{name: "embedded", errs: []error{
		engine.NewError(engine.KindSyntax, "embedded", `near "FORM": syntax error`),
	}}
	p := &stubProvider{
		plan:  planJSON(ai.ToolSQL),
		sql:   []string{"SELECT count(*) FORM sales LIMIT 1"},
		fixes: []string{"SELECT count(*) FROM sales LIMIT 1"},
	}
	a := testAgent(t, p, eng)

	rep, err := a.Analyze(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if rep.Status != executor.Succeeded {
		t.Fatalf("status = %q, attempts: %+v", rep.Status, rep.Attempts)
	}
	if rep.Metrics.Corrections != 1 {
		t.Errorf("corrections = %d, want 1", rep.Metrics.Corrections)
	}
	if rep.SQL != "SELECT count(*) FROM sales LIMIT 1" {
		t.Errorf("final sql = %q", rep.SQL)
	}

	found := false
	for _, c := range a.knowledge.Cases() {
		if strings.Contains(c.Error, "FORM") && c.Fix == rep.SQL {
			found = true
		}
	}
	if !found {
		t.Error("correction not recorded to knowledge base")
	}
}

func TestAnalyzePlanFailureIsFatal(t *testing.T) {
	p := &stubProvider{planErr: errors.New("model offline")}
	a := testAgent(t, p, &stubEngine{name: "embedded"})

	if _, err := a.Analyze(context.Background(), Request{Question: "q"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAnalyzeImplicitChart(t *testing.T) {
	p := &stubProvider{plan: planJSON(ai.ToolSQL)}
	a := testAgent(t, p, &stubEngine{name: "embedded"})

	rep, err := a.Analyze(context.Background(), Request{Question: "q", Plot: true})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(rep.Charts) != 1 {
		t.Errorf("charts = %d, want implicit chart", len(rep.Charts))
	}
}

func TestAnalyzePlotBeforeResultIsSkipped(t *testing.T) {
	eng := &stubEngine{name: "embedded"}
	p := &stubProvider{plan: planJSON(ai.ToolPlot, ai.ToolSQL)}
	a := testAgent(t, p, eng)

	rep, err := a.Analyze(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(rep.Charts) != 0 {
		t.Errorf("charts = %d, want 0", len(rep.Charts))
	}
	joined := strings.Join(rep.Notes, "\n")
	if !strings.Contains(joined, "plot skipped") {
		t.Errorf("notes = %q, want skip note", joined)
	}
	// The sql step after the skipped plot still runs.
	if len(eng.calls) != 1 {
		t.Errorf("engine calls = %d, want 1", len(eng.calls))
	}
}

func TestAnalyzeKnowledgeStep(t *testing.T) {
	// The step description matches a seeded case so the search hits.
	p := &stubProvider{
		plan: `{"goal": "g", "steps": [{"step_id": 1, "description": "no such table", "tool_needed": "knowledge_search"}]}`,
	}
	a := testAgent(t, p, &stubEngine{name: "embedded"})

	rep, err := a.Analyze(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	joined := strings.Join(rep.Notes, "\n")
	if !strings.Contains(joined, "known case") {
		t.Errorf("notes = %q, want knowledge hits", joined)
	}
}

func TestAnalyzeEngineOverride(t *testing.T) {
	first := &stubEngine{name: "embedded"}
	second := &stubEngine{name: "warehouse"}
	p := &stubProvider{plan: planJSON(ai.ToolSQL)}
	a := testAgent(t, p, first, second)

	rep, err := a.Analyze(context.Background(), Request{Question: "q", Engine: "warehouse"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if rep.Status != executor.Succeeded {
		t.Fatalf("status = %q", rep.Status)
	}
	if len(second.calls) != 1 || len(first.calls) != 0 {
		t.Errorf("calls: first=%d second=%d, want override to run first", len(first.calls), len(second.calls))
	}
	// The agent's own order is untouched.
	if a.Engines()[0].Name() != "embedded" {
		t.Error("request override must not reorder the agent")
	}

	if _, err := a.Analyze(context.Background(), Request{Question: "q", Engine: "nope"}); err == nil {
		t.Error("expected error for unknown engine override")
	}
}

func TestAnalyzeEmptyQuestion(t *testing.T) {
	a := testAgent(t, &stubProvider{}, &stubEngine{name: "embedded"})
	if _, err := a.Analyze(context.Background(), Request{Question: "   "}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestSetPrimaryReorders(t *testing.T) {
	first := &stubEngine{name: "embedded"}
	second := &stubEngine{name: "warehouse"}
	a := testAgent(t, &stubProvider{}, first, second)

	if err := a.SetPrimary("warehouse"); err != nil {
		t.Fatalf("SetPrimary() error: %v", err)
	}
	if got := a.Engines()[0].Name(); got != "warehouse" {
		t.Errorf("primary = %q", got)
	}
	if a.cfg.Executor.PrimaryEngine != "warehouse" {
		t.Errorf("config primary = %q", a.cfg.Executor.PrimaryEngine)
	}

	if err := a.SetPrimary("nope"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestAnalyzeSchemaFallsBackToNextEngine(t *testing.T) {
	broken := engine.Broken("embedded", errors.New("file locked"))
	healthy := &stubEngine{name: "warehouse"}
	p := &stubProvider{plan: planJSON(ai.ToolSQL)}
	a := testAgent(t, p, broken, healthy)

	rep, err := a.Analyze(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	joined := strings.Join(rep.Notes, "\n")
	if !strings.Contains(joined, "schema from embedded unavailable") {
		t.Errorf("notes = %q, want schema fallback note", joined)
	}
	// Fallback found the healthy engine, so the session still succeeds.
	if rep.Status != executor.Succeeded {
		t.Errorf("status = %q", rep.Status)
	}
}
