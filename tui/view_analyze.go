// view_analyze.go — The main question-to-report view.
//
// The user types a natural-language question; the full pipeline
// (plan → generate → execute → correct → chart) runs in a tea.Cmd so
// the UI stays responsive. The transcript shows the plan, every
// execution attempt, the result table and any charts.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/executor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type AnalyzeView struct {
	agent      *analysis.Agent
	viewport   *Viewport
	input      string
	history    []string
	histIdx    int
	report     *analysis.Report
	err        error
	loading    bool
	question   string // question currently running
	plot       bool   // always chart the final result
	fullscreen bool
	width      int
	height     int
}

func NewAnalyzeView(agent *analysis.Agent) *AnalyzeView {
	return &AnalyzeView{
		agent:    agent,
		viewport: NewViewport(80, 20),
		histIdx:  -1,
	}
}

func (v *AnalyzeView) Name() string         { return "Analyze" }
func (v *AnalyzeView) WantsTextInput() bool { return true }

func (v *AnalyzeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	// Reserve space for input line + blank
	v.viewport.SetSize(width-2, height-3)
}

func (v *AnalyzeView) ShortHelp() []KeyBinding {
	plotDesc := "plot: off"
	if v.plot {
		plotDesc = "plot: on"
	}
	return []KeyBinding{
		{Key: "Enter", Desc: "analyze"},
		{Key: "↑/↓", Desc: "history"},
		{Key: "Ctrl+P", Desc: plotDesc},
		{Key: "Ctrl+F", Desc: "fullscreen"},
	}
}

func (v *AnalyzeView) Init() tea.Cmd {
	if v.report != nil || v.loading {
		return nil
	}
	welcome := []string{
		StyleTitle.Render("◆ Analyze") + StyleDimmed.Render(" ("+v.agent.Provider().Name()+")"),
		"",
		"Ask a question about your data:",
		"  • \"top 10 customers by revenue this year\"",
		"  • \"how many orders per region, monthly\"",
		"  • \"which products were never sold\"",
		"",
		"The agent plans, writes SQL, runs it, and repairs or reroutes",
		"failed statements on its own. Every attempt is shown below.",
		"",
		StyleDimmed.Render("Type your question and press Enter."),
	}
	v.viewport.SetContentLines(welcome)
	return nil
}

func (v *AnalyzeView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case AnalysisMsg:
		v.loading = false
		v.report = msg.Report
		v.err = msg.Err
		v.viewport.SetContentLines(v.renderReport())
		v.viewport.Home()
		return v, nil
	}

	return v, nil
}

func (v *AnalyzeView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.run()

	case "up":
		if len(v.history) > 0 {
			if v.histIdx < len(v.history)-1 {
				v.histIdx++
			}
			v.input = v.history[v.histIdx]
		}
		return v, nil

	case "down":
		if v.histIdx > 0 {
			v.histIdx--
			v.input = v.history[v.histIdx]
		} else {
			v.histIdx = -1
			v.input = ""
		}
		return v, nil

	case "ctrl+p":
		v.plot = !v.plot
		return v, nil

	case "ctrl+f":
		v.fullscreen = !v.fullscreen
		return v, nil

	case "ctrl+k":
		v.viewport.ScrollUp(1)
	case "ctrl+j":
		v.viewport.ScrollDown(1)
	case "ctrl+h":
		v.viewport.ScrollLeft(4)
	case "ctrl+l":
		v.viewport.ScrollRight(4)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "ctrl+w":
		v.viewport.ToggleWrap()

	case "backspace":
		if len(v.input) > 0 {
			runes := []rune(v.input)
			v.input = string(runes[:len(runes)-1])
		}

	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
	}
	return v, nil
}

func (v *AnalyzeView) run() tea.Cmd {
	question := strings.TrimSpace(v.input)
	if question == "" || v.loading {
		return nil
	}

	v.history = append([]string{question}, v.history...)
	v.histIdx = -1
	v.question = question
	v.input = ""
	v.loading = true
	v.err = nil
	v.viewport.SetContentLines([]string{
		StyleDimmed.Render("analyzing: " + question),
		"",
		StyleDimmed.Render("planning..."),
	})

	agent := v.agent
	plot := v.plot
	return func() tea.Msg {
		rep, err := agent.Analyze(context.Background(), analysis.Request{
			Question: question,
			Plot:     plot,
		})
		return AnalysisMsg{Report: rep, Err: err}
	}
}

func (v *AnalyzeView) renderReport() []string {
	if v.err != nil {
		return []string{
			StyleError.Render("ERROR: " + v.err.Error()),
			"",
			StyleDimmed.Render("question: " + v.question),
		}
	}
	rep := v.report
	if rep == nil {
		return nil
	}

	var lines []string
	lines = append(lines, StyleBold.Render(rep.Question))
	lines = append(lines, StyleDimmed.Render("session "+rep.SessionID))
	lines = append(lines, "")

	if rep.Plan != nil {
		lines = append(lines, StyleTitle.Render("Plan: "+rep.Plan.Goal))
		for _, s := range rep.Plan.Steps {
			lines = append(lines, fmt.Sprintf("  %d. %s %s",
				s.ID, StyleInputFocused.Render("["+s.Tool+"]"), s.Description))
		}
		lines = append(lines, "")
	}

	if len(rep.Attempts) > 0 {
		lines = append(lines, StyleTitle.Render("Attempts"))
		for _, at := range rep.Attempts {
			if at.Success {
				lines = append(lines, "  "+StyleSuccess.Render(at.Summary()))
			} else {
				lines = append(lines, "  "+StyleWarning.Render(at.Summary()))
			}
		}
		lines = append(lines, "")
	}

	switch {
	case rep.Status == executor.Succeeded && rep.Rows != nil:
		lines = append(lines, StyleTitle.Render("Result"))
		lines = append(lines, StyleDimmed.Render("sql: "+rep.SQL))
		lines = append(lines, "")
		lines = append(lines, styledTable(rep.Rows)...)
	case rep.Status == executor.Exhausted:
		lines = append(lines, StyleError.Render(
			fmt.Sprintf("✗ all engines exhausted: [%s] %s", rep.ErrKind, rep.ErrMessage)))
	}
	lines = append(lines, "")

	for _, c := range rep.Charts {
		lines = append(lines, strings.Split(strings.TrimRight(c.Spec.Render(v.chartWidth()), "\n"), "\n")...)
		if c.Path != "" {
			lines = append(lines, StyleDimmed.Render("saved: "+c.Path))
		}
		lines = append(lines, "")
	}

	for _, n := range rep.Notes {
		lines = append(lines, StyleDimmed.Render("note: "+n))
	}
	if len(rep.Notes) > 0 {
		lines = append(lines, "")
	}

	m := rep.Metrics
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf(
		"%d attempt(s), %d correction(s), %d fallback(s) in %s",
		m.Attempts, m.Corrections, m.Fallbacks, m.Elapsed.Round(timeRound))))

	return lines
}

func (v *AnalyzeView) chartWidth() int {
	w := v.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (v *AnalyzeView) View() string {
	prompt := StylePrompt.Render("ask> ") + v.input + "█"
	if v.loading {
		prompt = StylePrompt.Render("ask> ") + StyleDimmed.Render("analyzing "+v.question+"...")
	}

	content := v.viewport.Render()

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", content)
}
