// view_history.go — Execution history across sessions.
//
// Reads the attempt store (history.db) so past analyses stay
// inspectable after restarts. Read-only: the store is written by the
// execution loop, never by the TUI.
package tui

import (
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const historyLimit = 200

type HistoryView struct {
	store    *session.Store
	viewport *Viewport
	loading  bool
	count    int
	width    int
	height   int
}

func NewHistoryView(store *session.Store) *HistoryView {
	return &HistoryView{
		store:    store,
		viewport: NewViewport(80, 20),
	}
}

func (v *HistoryView) Name() string         { return "History" }
func (v *HistoryView) WantsTextInput() bool { return false }

func (v *HistoryView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-2)
}

func (v *HistoryView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "r", Desc: "refresh"},
		{Key: "j/k", Desc: "scroll"},
	}
}

func (v *HistoryView) Init() tea.Cmd {
	if v.store == nil {
		v.viewport.SetContentLines([]string{
			StyleDimmed.Render("History is disabled."),
			"",
			StyleDimmed.Render(`Set "history_store": true in ~/.sqlsage/config.json to record`),
			StyleDimmed.Render("every execution attempt across sessions."),
		})
		return nil
	}
	return v.fetch()
}

func (v *HistoryView) fetch() tea.Cmd {
	v.loading = true
	store := v.store
	return func() tea.Msg {
		attempts, err := store.Recent(historyLimit)
		return HistoryMsg{Attempts: attempts, Err: err}
	}
}

func (v *HistoryView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case HistoryMsg:
		v.loading = false
		if msg.Err != nil {
			v.viewport.SetContent(StyleError.Render("ERROR: " + msg.Err.Error()))
			return v, nil
		}
		v.count = len(msg.Attempts)
		v.viewport.SetContentLines(v.format(msg.Attempts))
		return v, nil
	}

	return v, nil
}

func (v *HistoryView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "r":
		if v.store != nil {
			return v, v.fetch()
		}
	case "k", "up":
		v.viewport.ScrollUp(1)
	case "j", "down":
		v.viewport.ScrollDown(1)
	case "h", "left":
		v.viewport.ScrollLeft(4)
	case "l", "right":
		v.viewport.ScrollRight(4)
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

// format groups attempts by session, newest session first.
func (v *HistoryView) format(attempts []session.StoredAttempt) []string {
	if len(attempts) == 0 {
		return []string{StyleDimmed.Render("No recorded attempts yet.")}
	}

	var lines []string
	lastSession := ""
	for _, at := range attempts {
		if at.SessionID != lastSession {
			if lastSession != "" {
				lines = append(lines, "")
			}
			lastSession = at.SessionID
			lines = append(lines, StyleBold.Render("session "+shortID(at.SessionID))+
				StyleDimmed.Render("  "+at.StartedAt.Format("2006-01-02 15:04:05")))
		}
		if at.Success {
			lines = append(lines, "  "+StyleSuccess.Render(at.Summary()))
		} else {
			lines = append(lines, "  "+StyleWarning.Render(at.Summary()))
		}
		if at.SQL != "" {
			lines = append(lines, "    "+StyleDimmed.Render(flattenSQL(at.SQL)))
		}
	}
	lines = append(lines, "")
	lines = append(lines, StyleDimmed.Render(fmt.Sprintf("(%d attempt%s shown)", len(attempts), plural2(len(attempts)))))
	return lines
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func flattenSQL(sql string) string {
	s := strings.Join(strings.Fields(sql), " ")
	if len([]rune(s)) > 100 {
		s = string([]rune(s)[:99]) + "…"
	}
	return s
}

func (v *HistoryView) View() string {
	status := ""
	if v.loading {
		status = StyleDimmed.Render("  loading...")
	}
	header := fmt.Sprintf("  %s%s", StyleTitle.Render("◷ History"), status)

	content := v.viewport.Render()

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}
