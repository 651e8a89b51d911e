// view_knowledge.go — Knowledge base browser.
//
// Shows the known failure cases the corrector grounds its repairs on,
// plus SQL patterns and domain notes. Cases accumulate automatically
// whenever a correction succeeds; this view is how you audit them.
package tui

import (
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/knowledge"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type KnowledgeView struct {
	kb        *knowledge.Base
	viewport  *Viewport
	query     string
	searching bool
	results   []knowledge.Case // non-nil after a search
	width     int
	height    int
}

func NewKnowledgeView(kb *knowledge.Base) *KnowledgeView {
	return &KnowledgeView{
		kb:       kb,
		viewport: NewViewport(80, 20),
	}
}

func (v *KnowledgeView) Name() string         { return "Knowledge" }
func (v *KnowledgeView) WantsTextInput() bool { return v.searching }

func (v *KnowledgeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-3)
}

func (v *KnowledgeView) ShortHelp() []KeyBinding {
	if v.searching {
		return []KeyBinding{
			{Key: "Enter", Desc: "search"},
			{Key: "Esc", Desc: "cancel"},
		}
	}
	return []KeyBinding{
		{Key: "s", Desc: "search"},
		{Key: "r", Desc: "reload"},
		{Key: "j/k", Desc: "scroll"},
	}
}

func (v *KnowledgeView) Init() tea.Cmd {
	v.viewport.SetContentLines(v.browse())
	return nil
}

func (v *KnowledgeView) Update(msg tea.Msg) (View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *KnowledgeView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	if v.searching {
		switch msg.String() {
		case "enter":
			v.searching = false
			query := strings.TrimSpace(v.query)
			if query == "" {
				v.results = nil
				v.viewport.SetContentLines(v.browse())
				return v, nil
			}
			v.results = v.kb.Search(query, 10)
			v.viewport.SetContentLines(v.searchResults(query))
			v.viewport.Home()
		case "esc":
			v.searching = false
			v.query = ""
		case "backspace":
			if len(v.query) > 0 {
				runes := []rune(v.query)
				v.query = string(runes[:len(runes)-1])
			}
		default:
			if msg.Type == tea.KeyRunes {
				v.query += string(msg.Runes)
			} else if msg.Type == tea.KeySpace {
				v.query += " "
			}
		}
		return v, nil
	}

	switch msg.String() {
	case "s":
		v.searching = true
		v.query = ""
	case "r":
		v.results = nil
		v.query = ""
		v.viewport.SetContentLines(v.browse())
		v.viewport.Home()
	case "k", "up":
		v.viewport.ScrollUp(1)
	case "j", "down":
		v.viewport.ScrollDown(1)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "home", "g":
		v.viewport.Home()
	case "end", "G":
		v.viewport.End()
	case "ctrl+w":
		v.viewport.ToggleWrap()
	}
	return v, nil
}

// browse renders the full base: cases, patterns, notes.
func (v *KnowledgeView) browse() []string {
	var lines []string

	cases := v.kb.Cases()
	lines = append(lines, StyleTitle.Render(fmt.Sprintf("Known cases (%d)", len(cases))))
	if len(cases) == 0 {
		lines = append(lines, StyleDimmed.Render("  none yet — successful corrections are recorded here"))
	}
	for _, c := range cases {
		lines = append(lines, v.renderCase(c)...)
	}
	lines = append(lines, "")

	patterns := v.kb.Patterns("")
	lines = append(lines, StyleTitle.Render(fmt.Sprintf("SQL patterns (%d)", len(patterns))))
	for _, p := range patterns {
		lines = append(lines, "  "+StyleInputFocused.Render(p.Kind))
		lines = append(lines, "    "+StyleDimmed.Render(p.Template))
	}
	lines = append(lines, "")

	notes := v.kb.Notes()
	lines = append(lines, StyleTitle.Render(fmt.Sprintf("Domain notes (%d)", len(notes))))
	for _, n := range notes {
		lines = append(lines, "  • "+n)
	}

	return lines
}

func (v *KnowledgeView) searchResults(query string) []string {
	var lines []string
	lines = append(lines, StyleTitle.Render(fmt.Sprintf("Matches for %q (%d)", query, len(v.results))))
	if len(v.results) == 0 {
		lines = append(lines, StyleDimmed.Render("  no similar cases"))
	}
	for _, c := range v.results {
		lines = append(lines, v.renderCase(c)...)
	}
	lines = append(lines, "")
	lines = append(lines, StyleDimmed.Render("Press r to return to the full listing."))
	return lines
}

func (v *KnowledgeView) renderCase(c knowledge.Case) []string {
	lines := []string{
		"  " + StyleWarning.Render("error: ") + c.Error,
		"  " + StyleSuccess.Render("fix:   ") + c.Fix,
	}
	if c.FailedSQL != "" {
		lines = append(lines, "  "+StyleDimmed.Render("was:   "+flattenSQL(c.FailedSQL)))
	}
	if c.Note != "" {
		lines = append(lines, "  "+StyleDimmed.Render("note:  "+c.Note))
	}
	lines = append(lines, "")
	return lines
}

func (v *KnowledgeView) View() string {
	var header string
	if v.searching {
		header = StylePrompt.Render("search> ") + v.query + "█"
	} else {
		header = "  " + StyleTitle.Render("◈ Knowledge")
	}

	content := v.viewport.Render()

	return lipgloss.JoinVertical(lipgloss.Left, header, "", content)
}
