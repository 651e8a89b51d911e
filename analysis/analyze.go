package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DachengChen/sqlsage/ai"
	"github.com/DachengChen/sqlsage/applog"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/DachengChen/sqlsage/executor"
	"github.com/DachengChen/sqlsage/plot"
	"github.com/DachengChen/sqlsage/session"
)

// Request is one analysis question with per-request options.
type Request struct {
	Question string

	// Engine optionally overrides the primary engine for this request.
	// Engines are bound to their datasets at construction, so naming an
	// engine names the data.
	Engine string

	// Plot forces a chart from the final result even when the plan has
	// no plotter step.
	Plot bool
}

// Chart is a built chart spec plus the artifact path it was saved to.
// Path is empty when saving failed; the spec still renders.
type Chart struct {
	Spec *plot.Spec
	Path string
}

// Metrics counts what one session spent.
type Metrics struct {
	Steps       int
	Runs        int
	Attempts    int
	Corrections int
	Fallbacks   int
	Elapsed     time.Duration
}

// Report is the full outcome of one analysis session.
type Report struct {
	SessionID string
	Question  string
	Status    executor.Status
	Plan      *ai.Plan

	// Rows and SQL are the final successful result and the statement
	// that produced it.
	Rows *engine.RowSet
	SQL  string

	Charts []Chart
	Notes  []string

	// Attempts is the complete execution history of the session.
	Attempts []session.Attempt

	// ErrKind and ErrMessage describe the terminal failure when Status
	// is Exhausted.
	ErrKind    engine.ErrorKind
	ErrMessage string

	Metrics Metrics
}

// Analyze runs one full session: schema, knowledge context, plan, then
// the plan's steps in order. Exhausting every engine is reported in the
// Report status; errors are reserved for collaborator failures.
func (a *Agent) Analyze(ctx context.Context, req Request) (*Report, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errors.New("analyze: empty question")
	}

	engines, err := a.activeEngines(req.Engine)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	start := time.Now()
	mem := session.NewMemory()
	if a.store != nil {
		mem.AttachSink(a.store)
	}

	report := &Report{
		SessionID: mem.ID(),
		Question:  question,
		Status:    executor.Succeeded,
	}
	applog.Event("SESSION", "start id=%s engine=%s q=%q", mem.ID(), engines[0].Name(), question)

	schemaCtx, schemaNotes := schemaContext(ctx, engines)
	report.Notes = append(report.Notes, schemaNotes...)

	for _, c := range a.knowledge.Search(question, 2) {
		report.Notes = append(report.Notes, fmt.Sprintf("known case: %s: %s", c.Error, c.Fix))
	}

	plan, err := a.planner.Plan(ctx, question, schemaCtx)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	report.Plan = plan
	applog.Event("PLAN", "id=%s steps=%d goal=%q", mem.ID(), len(plan.Steps), plan.Goal)

	corrector := &ai.Corrector{
		Provider:  a.provider,
		Schema:    schemaCtx,
		Memory:    mem,
		Knowledge: a.knowledge,
	}

steps:
	for _, step := range plan.Steps {
		report.Metrics.Steps++

		switch step.Tool {
		case ai.ToolSQL:
			res, err := a.runSQLStep(ctx, engines, corrector, mem, step, schemaCtx, report)
			if err != nil {
				return nil, err
			}
			if res.Status == executor.Exhausted {
				report.Status = executor.Exhausted
				report.ErrKind = res.FinalKind
				report.ErrMessage = res.FinalMessage
				break steps
			}

		case ai.ToolPlot:
			if report.Rows == nil {
				report.Notes = append(report.Notes, fmt.Sprintf("step %d: plot skipped, no result rows yet", step.ID))
				continue
			}
			title := step.Name
			if title == "" {
				title = question
			}
			a.addChart(title, report)

		case ai.ToolKnowledge:
			for _, c := range a.knowledge.Search(step.Description, 3) {
				report.Notes = append(report.Notes, fmt.Sprintf("known case: %s: %s", c.Error, c.Fix))
			}
		}
	}

	if req.Plot && report.Status == executor.Succeeded && len(report.Charts) == 0 && report.Rows != nil {
		a.addChart(question, report)
	}

	report.Attempts = mem.History()
	report.Metrics.Attempts = len(report.Attempts)
	report.Metrics.Elapsed = time.Since(start)
	applog.Event("SESSION", "end id=%s status=%s attempts=%d corrections=%d fallbacks=%d elapsed=%s",
		mem.ID(), report.Status, report.Metrics.Attempts, report.Metrics.Corrections,
		report.Metrics.Fallbacks, report.Metrics.Elapsed.Round(time.Millisecond))
	return report, nil
}

// runSQLStep generates, polishes, and executes the statement for one
// plan step, folding the run's spend into the report.
func (a *Agent) runSQLStep(ctx context.Context, engines []engine.Engine, corrector executor.Corrector,
	mem *session.Memory, step ai.Step, schemaCtx string, report *Report) (*executor.Result, error) {

	sqlText, err := a.generator.Generate(ctx, step.Description, schemaCtx)
	if err != nil {
		return nil, fmt.Errorf("analyze step %d: %w", step.ID, err)
	}
	sqlText = a.generator.Optimize(ctx, sqlText, schemaCtx)

	exec, err := executor.New(engines, corrector, mem, executor.Options{
		MaxCorrections: a.cfg.Executor.MaxCorrections,
		EnableFallback: a.cfg.Executor.EnableFallback,
		AttemptTimeout: a.cfg.Executor.AttemptTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze step %d: %w", step.ID, err)
	}

	res, err := exec.Run(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("analyze step %d: %w", step.ID, err)
	}

	report.Metrics.Runs++
	report.Metrics.Corrections += res.Corrections
	report.Metrics.Fallbacks += res.Fallbacks

	if res.Status == executor.Succeeded {
		report.Rows = res.Rows
		report.SQL = res.SQL
		if res.Corrections > 0 {
			a.recordCorrection(res)
		}
	}
	return res, nil
}

// recordCorrection saves what fixed a statement when the winning
// attempt directly follows a syntax failure on the same engine. A win
// by fallback teaches nothing about correction, so it is skipped.
func (a *Agent) recordCorrection(res *executor.Result) {
	n := len(res.Attempts)
	if n < 2 {
		return
	}
	win, prev := res.Attempts[n-1], res.Attempts[n-2]
	if !win.Success || prev.Success || prev.Engine != win.Engine || prev.Kind != engine.KindSyntax {
		return
	}
	if err := a.knowledge.RecordSolution(prev.Message, prev.SQL, win.SQL); err != nil {
		applog.Error("record solution: %v", err)
	}
}

// addChart builds and saves a chart from the report's result rows.
// Chart trouble lands in the notes; it never fails the session.
func (a *Agent) addChart(title string, report *Report) {
	spec, err := plot.Build(title, report.Rows, plot.SuggestKind(report.Rows))
	if err != nil {
		report.Notes = append(report.Notes, "plot failed: "+err.Error())
		return
	}
	path, err := spec.Save(a.cfg.OutputDir)
	if err != nil {
		report.Notes = append(report.Notes, "chart not saved: "+err.Error())
	}
	report.Charts = append(report.Charts, Chart{Spec: spec, Path: path})
}

// schemaContext renders the schema of the first engine that answers.
// Engines are primary-first, so a fallback schema only happens when
// the primary is down, which is worth a note.
func schemaContext(ctx context.Context, engines []engine.Engine) (string, []string) {
	var notes []string
	for _, eng := range engines {
		sch, err := eng.Schema(ctx)
		if err != nil {
			notes = append(notes, fmt.Sprintf("schema from %s unavailable: %v", eng.Name(), err))
			continue
		}
		return sch.Context(), notes
	}
	return "(no schema available)", notes
}
