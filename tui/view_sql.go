// view_sql.go — Direct SQL view.
//
// Features:
//   - Text input for SQL statements, bypassing the AI pipeline
//   - Async execution on the chosen engine (never blocks UI)
//   - Results rendered as a table with scrolling
//   - Meta-commands: \dt \d <table> \use <engine> \engines \set
//   - Variable substitution via engine.Variables
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SQLView struct {
	agent    *analysis.Agent
	vars     *engine.Variables
	viewport *Viewport
	input    string
	history  []string
	histIdx  int
	active   string // engine name; empty = primary
	describe string // pending \d target
	loading  bool
	width    int
	height   int
}

func NewSQLView(agent *analysis.Agent) *SQLView {
	return &SQLView{
		agent:    agent,
		vars:     engine.NewVariables(),
		viewport: NewViewport(80, 20),
		histIdx:  -1,
	}
}

func (v *SQLView) Name() string         { return "SQL" }
func (v *SQLView) WantsTextInput() bool { return true }

func (v *SQLView) SetSize(width, height int) {
	v.width = width
	v.height = height
	// Reserve space for input line + blank
	v.viewport.SetSize(width-2, height-3)
}

func (v *SQLView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "execute"},
		{Key: "↑/↓", Desc: "history"},
		{Key: "Ctrl+W", Desc: "wrap"},
	}
}

func (v *SQLView) Init() tea.Cmd { return nil }

// engine resolves the active engine, falling back to the primary.
func (v *SQLView) engine() engine.Engine {
	engines := v.agent.Engines()
	for _, e := range engines {
		if e.Name() == v.active {
			return e
		}
	}
	if len(engines) > 0 {
		return engines[0]
	}
	return nil
}

func (v *SQLView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case SQLResultMsg:
		v.loading = false
		if msg.Err != nil {
			v.viewport.SetContentLines([]string{
				StyleError.Render("ERROR: " + msg.Err.Error()),
				"",
				StyleDimmed.Render("engine: " + msg.Engine),
			})
		} else {
			lines := styledTable(msg.Rows)
			lines = append(lines, StyleDimmed.Render("engine: "+msg.Engine))
			v.viewport.SetContentLines(lines)
		}
		return v, nil

	case SchemaMsg:
		v.loading = false
		describe := v.describe
		v.describe = ""
		if msg.Err != nil {
			v.viewport.SetContent(StyleError.Render("ERROR: " + msg.Err.Error()))
		} else if describe != "" {
			v.viewport.SetContentLines(v.formatDescribe(msg.Schema, describe))
		} else {
			v.viewport.SetContentLines(v.formatTables(msg.Schema))
		}
		return v, nil
	}

	return v, nil
}

func (v *SQLView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.execute()

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

	case "ctrl+k":
		v.viewport.ScrollUp(1)
		return v, nil
	case "ctrl+j":
		v.viewport.ScrollDown(1)
		return v, nil
	case "ctrl+h":
		v.viewport.ScrollLeft(4)
		return v, nil
	case "ctrl+l":
		v.viewport.ScrollRight(4)
		return v, nil
	case "pgup":
		v.viewport.PageUp()
		return v, nil
	case "pgdown":
		v.viewport.PageDown()
		return v, nil

	case "ctrl+w":
		v.viewport.ToggleWrap()
		return v, nil

	case "backspace":
		if len(v.input) > 0 {
			runes := []rune(v.input)
			v.input = string(runes[:len(runes)-1])
		}
		return v, nil

	default:
		if msg.Type == tea.KeyRunes {
			v.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.input += " "
		}
		return v, nil
	}
}

func (v *SQLView) execute() tea.Cmd {
	input := strings.TrimSpace(v.input)
	if input == "" {
		return nil
	}

	// Store in history
	v.history = append([]string{input}, v.history...)
	v.histIdx = -1

	// Handle meta-commands
	if strings.HasPrefix(input, "\\") {
		return v.handleMetaCommand(input)
	}

	eng := v.engine()
	if eng == nil {
		v.viewport.SetContent(StyleError.Render("no engines configured"))
		return nil
	}

	// Expand variables
	sql := v.vars.Expand(input)

	v.loading = true
	v.input = ""

	timeout := v.agent.Config().Executor.AttemptTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rows, err := eng.Execute(ctx, sql)
		return SQLResultMsg{Engine: eng.Name(), Rows: rows, Err: err}
	}
}

// listTables fetches the active engine's schema for a \dt style listing.
func (v *SQLView) listTables() tea.Cmd {
	eng := v.engine()
	if eng == nil {
		v.viewport.SetContent(StyleError.Render("no engines configured"))
		return nil
	}
	v.loading = true
	return func() tea.Msg {
		schema, err := eng.Schema(context.Background())
		return SchemaMsg{Engine: eng.Name(), Schema: schema, Err: err}
	}
}

func (v *SQLView) handleMetaCommand(cmd string) tea.Cmd {
	parts := strings.Fields(cmd)
	switch parts[0] {
	case "\\dt":
		v.input = ""
		return v.listTables()

	case "\\d":
		if len(parts) < 2 {
			v.viewport.SetContent(StyleError.Render("Usage: \\d <table_name>"))
			return nil
		}
		v.input = ""
		v.describe = parts[1]
		return v.listTables()

	case "\\use":
		if len(parts) < 2 {
			v.viewport.SetContent(StyleError.Render("Usage: \\use <engine>"))
			return nil
		}
		name := parts[1]
		found := false
		for _, e := range v.agent.Engines() {
			if e.Name() == name {
				found = true
				break
			}
		}
		if !found {
			v.viewport.SetContent(StyleError.Render("unknown engine: " + name))
			return nil
		}
		v.active = name
		v.input = ""
		v.viewport.SetContent(StyleSuccess.Render("now executing on " + name))
		return nil

	case "\\engines":
		v.input = ""
		active := v.engine()
		if active == nil {
			v.viewport.SetContent(StyleError.Render("no engines configured"))
			return nil
		}
		var lines []string
		for i, e := range v.agent.Engines() {
			marker := "  "
			if e.Name() == active.Name() {
				marker = StyleSuccess.Render("▸ ")
			}
			role := ""
			if i == 0 {
				role = StyleDimmed.Render("  (primary)")
			}
			lines = append(lines, marker+e.Name()+role)
		}
		v.viewport.SetContentLines(lines)
		return nil

	case "\\set":
		if len(parts) < 3 {
			// List variables
			lines := v.vars.List()
			if len(lines) == 0 {
				v.viewport.SetContent(StyleDimmed.Render("No variables set."))
			} else {
				v.viewport.SetContentLines(lines)
			}
			v.input = ""
			return nil
		}
		v.vars.Set(parts[1], strings.Join(parts[2:], " "))
		v.viewport.SetContent(StyleSuccess.Render(fmt.Sprintf("SET %s = %s", parts[1], strings.Join(parts[2:], " "))))
		v.input = ""
		return nil

	default:
		v.viewport.SetContent(StyleError.Render("Unknown command: " + cmd))
		v.input = ""
		return nil
	}
}

func (v *SQLView) formatTables(schema *engine.Schema) []string {
	if schema == nil || len(schema.Tables) == 0 {
		return []string{StyleDimmed.Render("No tables found.")}
	}

	var lines []string
	lines = append(lines, StyleSuccess.Render(fmt.Sprintf(" %-24s │ %-8s │ %s", "Table", "Columns", "Rows")))
	lines = append(lines, StyleDimmed.Render(strings.Repeat("─", 50)))
	for _, t := range schema.Tables {
		est := "?"
		if t.RowEstimate > 0 {
			est = fmt.Sprintf("~%d", t.RowEstimate)
		}
		lines = append(lines, fmt.Sprintf(" %-24s │ %-8d │ %s", t.Name, len(t.Columns), est))
	}
	lines = append(lines, "")
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf("(%d table%s on %s)",
		len(schema.Tables), plural2(len(schema.Tables)), schema.Engine)))
	return lines
}

func (v *SQLView) formatDescribe(schema *engine.Schema, name string) []string {
	if schema == nil {
		return []string{StyleDimmed.Render("No schema available.")}
	}
	t, ok := schema.Table(name)
	if !ok {
		return []string{StyleError.Render("unknown table: " + name)}
	}

	var lines []string
	lines = append(lines, StyleSuccess.Render(fmt.Sprintf(" %-24s │ %-16s │ %-8s │ %s", "Column", "Type", "Nullable", "Key")))
	lines = append(lines, StyleDimmed.Render(strings.Repeat("─", 64)))
	for _, c := range t.Columns {
		nullable := "yes"
		if !c.Nullable {
			nullable = "no"
		}
		key := ""
		if c.PrimaryKey {
			key = "PK"
		}
		lines = append(lines, fmt.Sprintf(" %-24s │ %-16s │ %-8s │ %s", c.Name, c.DataType, nullable, key))
	}
	lines = append(lines, "")
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf("(%d column%s)", len(t.Columns), plural2(len(t.Columns)))))
	return lines
}

func plural2(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func (v *SQLView) View() string {
	label := v.active
	if label == "" {
		if eng := v.engine(); eng != nil {
			label = eng.Name()
		} else {
			label = "none"
		}
	}

	prompt := StylePrompt.Render(label+"> ") + v.input + "█"
	if v.loading {
		prompt = StylePrompt.Render(label+"> ") + StyleDimmed.Render("executing...")
	}

	content := v.viewport.Render()

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", content)
}
