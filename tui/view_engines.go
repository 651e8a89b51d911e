// view_engines.go — Engine chain management.
//
// Lists the configured engines in fallback order, probes connectivity
// on demand and promotes an engine to primary. Probes fetch the schema
// snapshot, the same call the analysis pipeline grounds its prompts on.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const engineProbeTimeout = 10 * time.Second

type EnginesView struct {
	agent  *analysis.Agent
	cursor int
	probes map[string]string // engine name → last probe outcome
	busy   map[string]bool   // probe in flight
	width  int
	height int
}

func NewEnginesView(agent *analysis.Agent) *EnginesView {
	return &EnginesView{
		agent:  agent,
		probes: make(map[string]string),
		busy:   make(map[string]bool),
	}
}

func (v *EnginesView) Name() string         { return "Engines" }
func (v *EnginesView) WantsTextInput() bool { return false }

func (v *EnginesView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *EnginesView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "↑/↓", Desc: "select"},
		{Key: "Enter", Desc: "probe"},
		{Key: "p", Desc: "set primary"},
	}
}

func (v *EnginesView) Init() tea.Cmd { return nil }

func (v *EnginesView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case ProbeMsg:
		delete(v.busy, msg.Engine)
		if msg.Err != nil {
			v.probes[msg.Engine] = StyleError.Render("unreachable: " + msg.Err.Error())
		} else {
			v.probes[msg.Engine] = StyleSuccess.Render(
				fmt.Sprintf("ok: %d table(s) in %s", msg.Tables, msg.Elapsed.Round(timeRound)))
		}
		return v, nil
	}

	return v, nil
}

func (v *EnginesView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	engines := v.agent.Engines()
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(engines)-1 {
			v.cursor++
		}
	case "enter":
		if v.cursor < len(engines) {
			return v, v.probe(engines[v.cursor])
		}
	case "p":
		if v.cursor < len(engines) {
			name := engines[v.cursor].Name()
			if err := v.agent.SetPrimary(name); err != nil {
				return v, func() tea.Msg { return StatusMsg(err.Error()) }
			}
			v.cursor = 0
			return v, func() tea.Msg { return StatusMsg("primary engine: " + name) }
		}
	}
	return v, nil
}

func (v *EnginesView) probe(eng engine.Engine) tea.Cmd {
	if v.busy[eng.Name()] {
		return nil
	}
	v.busy[eng.Name()] = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), engineProbeTimeout)
		defer cancel()

		start := time.Now()
		schema, err := eng.Schema(ctx)
		if err != nil {
			return ProbeMsg{Engine: eng.Name(), Err: err}
		}
		return ProbeMsg{Engine: eng.Name(), Tables: len(schema.Tables), Elapsed: time.Since(start)}
	}
}

func (v *EnginesView) View() string {
	engines := v.agent.Engines()
	cfg := v.agent.Config()

	var lines []string
	lines = append(lines, "  "+StyleTitle.Render("⛁ Engines"))
	lines = append(lines, "")

	if len(engines) == 0 {
		lines = append(lines, StyleDimmed.Render("  No engines configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, eng := range engines {
		name := eng.Name()
		role := "fallback"
		if i == 0 {
			role = "primary"
		}

		driver, targetDesc := "", ""
		if ec, ok := cfg.Engine(name); ok {
			driver = ec.Driver
			switch ec.Driver {
			case "sqlite":
				targetDesc = ec.Path
			case "postgres":
				targetDesc = fmt.Sprintf("%s@%s:%d/%s", ec.User, ec.Host, ec.Port, ec.Database)
				if ec.SSH.Enabled {
					targetDesc += " (via ssh)"
				}
			}
		}

		row := fmt.Sprintf("%-14s %-9s %-9s %s", name, driver, role, targetDesc)
		if i == v.cursor {
			lines = append(lines, StyleListItemActive.Render("  ▸ "+row))
		} else {
			lines = append(lines, StyleNormal.Render("    "+row))
		}

		status, ok := v.probes[name]
		if v.busy[name] {
			status, ok = StyleDimmed.Render("probing..."), true
		}
		if ok {
			lines = append(lines, "      "+status)
		}
	}

	lines = append(lines, "")
	fb := "off"
	if cfg.Executor.EnableFallback {
		fb = "on"
	}
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf(
		"  fallback: %s · max corrections per engine: %d · attempt timeout: %s",
		fb, cfg.Executor.MaxCorrections, cfg.Executor.AttemptTimeout())))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
