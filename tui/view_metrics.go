// view_metrics.go — Cumulative run metrics.
//
// Totals are owned by the App and fed from every AnalysisMsg passing
// through it, so sessions run on any tab are counted. Everything here
// resets when the program exits; durable history lives in history.db.
package tui

import (
	"fmt"
	"time"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/executor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Totals accumulates metrics across analysis sessions.
type Totals struct {
	Sessions    int
	Succeeded   int
	Exhausted   int
	Steps       int
	Runs        int
	Attempts    int
	Corrections int
	Fallbacks   int
	Elapsed     time.Duration
}

// Add folds one finished report into the totals.
func (t *Totals) Add(rep *analysis.Report) {
	t.Sessions++
	if rep.Status == executor.Succeeded {
		t.Succeeded++
	} else {
		t.Exhausted++
	}
	t.Steps += rep.Metrics.Steps
	t.Runs += rep.Metrics.Runs
	t.Attempts += rep.Metrics.Attempts
	t.Corrections += rep.Metrics.Corrections
	t.Fallbacks += rep.Metrics.Fallbacks
	t.Elapsed += rep.Metrics.Elapsed
}

type MetricsView struct {
	agent  *analysis.Agent
	totals *Totals
	width  int
	height int
}

func NewMetricsView(agent *analysis.Agent, totals *Totals) *MetricsView {
	return &MetricsView{agent: agent, totals: totals}
}

func (v *MetricsView) Name() string         { return "Metrics" }
func (v *MetricsView) WantsTextInput() bool { return false }

func (v *MetricsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *MetricsView) ShortHelp() []KeyBinding {
	return nil
}

func (v *MetricsView) Init() tea.Cmd { return nil }

func (v *MetricsView) Update(msg tea.Msg) (View, tea.Cmd) {
	return v, nil
}

func (v *MetricsView) View() string {
	t := v.totals

	var lines []string
	lines = append(lines, "  "+StyleTitle.Render("∑ Metrics (this run)"))
	lines = append(lines, "")

	if t.Sessions == 0 {
		lines = append(lines, StyleDimmed.Render("  No analyses yet. Run a question on the Analyze tab."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %-26s %s", label, value)
	}

	lines = append(lines, row("sessions", fmt.Sprintf("%d", t.Sessions)))
	lines = append(lines, row("  succeeded", StyleSuccess.Render(fmt.Sprintf("%d", t.Succeeded))))
	lines = append(lines, row("  exhausted", StyleError.Render(fmt.Sprintf("%d", t.Exhausted))))
	lines = append(lines, "")
	lines = append(lines, row("plan steps executed", fmt.Sprintf("%d", t.Steps)))
	lines = append(lines, row("executor runs", fmt.Sprintf("%d", t.Runs)))
	lines = append(lines, row("execution attempts", fmt.Sprintf("%d", t.Attempts)))
	lines = append(lines, row("corrections", fmt.Sprintf("%d", t.Corrections)))
	lines = append(lines, row("engine fallbacks", fmt.Sprintf("%d", t.Fallbacks)))
	lines = append(lines, "")
	lines = append(lines, row("total analysis time", t.Elapsed.Round(timeRound).String()))

	if t.Runs > 0 {
		perRun := float64(t.Attempts) / float64(t.Runs)
		lines = append(lines, row("attempts per run", fmt.Sprintf("%.1f", perRun)))
	}
	if t.Attempts > 0 {
		rate := float64(t.Corrections) * 100 / float64(t.Attempts)
		lines = append(lines, row("correction rate", fmt.Sprintf("%.0f%%", rate)))
	}

	lines = append(lines, "")
	kb := v.agent.Knowledge()
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf(
		"  knowledge base: %d case(s), %d pattern(s)", len(kb.Cases()), len(kb.Patterns("")))))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
