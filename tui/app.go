// app.go is the top-level Bubble Tea model that orchestrates all views.
//
// Key design decisions:
//   - Engines come from config, so there is no connection screen; the
//     app starts straight on the Analyze tab
//   - Tab-based navigation between views
//   - Command mode (`:`) for psql-like commands
//   - Jump mode (`/`) for quick view switching
//   - Help overlay (`?`) toggled on/off
//   - AnalysisMsg passes through the App so cumulative metrics stay
//     current no matter which tab is active
package tui

import (
	"fmt"
	"strings"

	"github.com/DachengChen/sqlsage/analysis"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const appVersion = "0.1.0"

// Tab indices.
const (
	TabAnalyze = iota
	TabSQL
	TabHistory
	TabEngines
	TabKnowledge
	TabMetrics
	TabLog
)

// InputMode determines what keystrokes do.
type InputMode int

const (
	ModeNormal InputMode = iota
	ModeCommand
	ModeJump
)

// App is the root Bubble Tea model.
type App struct {
	agent *analysis.Agent

	views     []View
	activeTab int

	// totals accumulates per-session metrics for the Metrics tab.
	totals Totals

	// UI state
	width     int
	height    int
	mode      InputMode
	cmdInput  string
	showHelp  bool
	statusMsg string
}

// NewApp creates the application around a ready agent.
func NewApp(agent *analysis.Agent) *App {
	a := &App{agent: agent}
	a.views = []View{
		NewAnalyzeView(agent),
		NewSQLView(agent),
		NewHistoryView(agent.Store()),
		NewEnginesView(agent),
		NewKnowledgeView(agent.Knowledge()),
		NewMetricsView(agent, &a.totals),
		NewLogView(),
	}
	a.activeTab = TabAnalyze
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.views[a.activeTab].Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Header(1) + TabBar(1) + Status(1) + Slack(1) + Borders(2) = 6 lines chrome
		contentW := a.width - 2
		viewH := a.height - 6
		for _, v := range a.views {
			v.SetSize(contentW, viewH)
		}
		return a, nil

	case AnalysisMsg:
		// Metrics accumulate app-side; the Analyze view renders the report.
		if msg.Err == nil && msg.Report != nil {
			a.totals.Add(msg.Report)
		}
		updated, cmd := a.views[TabAnalyze].Update(msg)
		a.views[TabAnalyze] = updated
		return a, cmd

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Forward other messages to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeCommand:
		return a.handleCommandMode(msg)
	case ModeJump:
		return a.handleJumpMode(msg)
	default:
		return a.handleNormalMode(msg)
	}
}

func (a *App) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Keys that work even while a view accepts text input.
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		return a.switchTab((a.activeTab + 1) % len(a.views))
	case "shift+tab":
		return a.switchTab((a.activeTab + len(a.views) - 1) % len(a.views))
	case "f1", "f2", "f3", "f4", "f5", "f6", "f7":
		return a.switchTab(int(msg.String()[1] - '1'))
	}

	// When the active view is accepting text input (question box, SQL
	// editor, knowledge search), everything else passes through so
	// `:`, `/`, `?` and digits remain typable.
	if a.activeTab < len(a.views) && a.views[a.activeTab].WantsTextInput() {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	switch msg.String() {
	case ":":
		a.mode = ModeCommand
		a.cmdInput = ""
		return a, nil

	case "/":
		a.mode = ModeJump
		a.cmdInput = ""
		return a, nil

	case "?":
		a.showHelp = !a.showHelp
		return a, nil

	case "1", "2", "3", "4", "5", "6", "7":
		return a.switchTab(int(msg.String()[0] - '1'))
	}

	// Forward to active view
	if a.activeTab < len(a.views) {
		updatedView, cmd := a.views[a.activeTab].Update(msg)
		a.views[a.activeTab] = updatedView
		return a, cmd
	}

	return a, nil
}

func (a *App) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.executeCommand(a.cmdInput)
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, cmd

	case "esc":
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, nil

	case "backspace":
		if len(a.cmdInput) > 0 {
			a.cmdInput = a.cmdInput[:len(a.cmdInput)-1]
		}
		return a, nil

	default:
		if msg.Type == tea.KeyRunes {
			a.cmdInput += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			a.cmdInput += " "
		}
		return a, nil
	}
}

func (a *App) handleJumpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.jumpToView(a.cmdInput)
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, a.views[a.activeTab].Init()

	case "esc":
		a.mode = ModeNormal
		a.cmdInput = ""
		return a, nil

	case "backspace":
		if len(a.cmdInput) > 0 {
			a.cmdInput = a.cmdInput[:len(a.cmdInput)-1]
		}
		return a, nil

	default:
		if msg.Type == tea.KeyRunes {
			a.cmdInput += string(msg.Runes)
		}
		return a, nil
	}
}

func (a *App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx >= 0 && idx < len(a.views) {
		a.activeTab = idx
		a.statusMsg = ""
		return a, a.views[a.activeTab].Init()
	}
	return a, nil
}

func (a *App) jumpToView(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, v := range a.views {
		if strings.Contains(strings.ToLower(v.Name()), name) {
			a.activeTab = i
			return
		}
	}
	a.statusMsg = "view not found: " + name
}

func (a *App) executeCommand(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	switch {
	case input == "q" || input == "quit":
		return tea.Quit

	case strings.HasPrefix(input, "primary "):
		name := strings.TrimSpace(strings.TrimPrefix(input, "primary "))
		if err := a.agent.SetPrimary(name); err != nil {
			a.statusMsg = err.Error()
			return nil
		}
		a.statusMsg = "primary engine: " + name
		return nil

	case input == "engines":
		a.activeTab = TabEngines
		return a.views[TabEngines].Init()

	case input == "dt":
		a.activeTab = TabSQL
		a.statusMsg = "listing tables..."
		if sv, ok := a.views[TabSQL].(*SQLView); ok {
			return sv.listTables()
		}
		return nil

	default:
		a.statusMsg = "unknown command: " + input
		return nil
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	header := a.renderHeader()

	var innerSections []string
	innerSections = append(innerSections, a.renderTabBar())

	if a.showHelp {
		innerSections = append(innerSections, a.renderHelp())
	} else if a.activeTab < len(a.views) {
		innerSections = append(innerSections, a.views[a.activeTab].View())
	}

	innerContent := lipgloss.JoinVertical(lipgloss.Left, innerSections...)

	// Fullscreen drops all chrome so results can be copied cleanly.
	if av, ok := a.views[a.activeTab].(*AnalyzeView); ok && av.fullscreen {
		return a.views[a.activeTab].View()
	}

	frameHeight := a.height - 4
	if frameHeight < 0 {
		frameHeight = 0
	}

	frame := StyleBorder.
		Width(a.width - 2).
		Height(frameHeight).
		Render(innerContent)

	statusBar := a.renderStatusBar()

	return header + "\n" + frame + "\n" + statusBar
}

// renderHeader draws a simple text bar: logo + version + provider/engine info.
func (a *App) renderHeader() string {
	logo := StyleBold.Render("◆ sqlsage")
	version := StyleDimmed.Render(" v" + appVersion)

	primary := "none"
	if engines := a.agent.Engines(); len(engines) > 0 {
		primary = engines[0].Name()
	}
	info := StyleSuccess.Render(fmt.Sprintf("  ⚡ %s · %s", a.agent.Provider().Name(), primary))

	content := logo + version + info

	// Fill gap to right align dimensions
	right := StyleDimmed.Render(fmt.Sprintf("%d×%d", a.width, a.height))
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Width(a.width).
		Render(content + filler + right)
}

func (a *App) renderTabBar() string {
	var tabs []string
	for i, v := range a.views {
		label := fmt.Sprintf("%d %s", i+1, v.Name())
		if i == a.activeTab {
			tabs = append(tabs, StyleTabActive.Render(label))
		} else {
			tabs = append(tabs, StyleTabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderStatusBar() string {
	var content string

	switch a.mode {
	case ModeCommand:
		content = StylePrompt.Render(":") + a.cmdInput + "█"
	case ModeJump:
		content = StylePrompt.Render("/") + a.cmdInput + "█"
	default:
		if a.statusMsg != "" {
			content = a.statusMsg
		} else {
			helpItems := a.getHelpItems()
			var parts []string
			for _, h := range helpItems {
				parts = append(parts,
					StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
			}
			content = strings.Join(parts, "  │  ")
		}
	}

	return StyleStatusBar.Width(a.width).Render(content)
}

func (a *App) getHelpItems() []KeyBinding {
	global := []KeyBinding{
		{Key: "?", Desc: "help"},
		{Key: "Ctrl+C", Desc: "quit"},
	}
	if a.activeTab < len(a.views) {
		return append(a.views[a.activeTab].ShortHelp(), global...)
	}
	return global
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("⌨ sqlsage Keyboard Shortcuts"),
		"",
		StyleHelpKey.Render("Tab / Shift+Tab") + "  Switch between views",
		StyleHelpKey.Render("F1–F7, 1–7") + "       Jump to a tab directly",
		StyleHelpKey.Render("/") + "                Jump to view by name",
		StyleHelpKey.Render(":") + "                Command mode",
		StyleHelpKey.Render("?") + "                Toggle this help",
		StyleHelpKey.Render("Ctrl+C") + "           Quit",
		"",
		StyleTitle.Render("View-specific"),
		"",
		StyleHelpKey.Render("Ctrl+K/Ctrl+J") + "    Vertical scroll",
		StyleHelpKey.Render("Ctrl+H/Ctrl+L") + "    Horizontal scroll",
		StyleHelpKey.Render("PgUp/PgDn") + "        Page up/down",
		StyleHelpKey.Render("Enter") + "            Run question / execute SQL",
		StyleHelpKey.Render("Ctrl+W") + "           Toggle line wrap",
		StyleHelpKey.Render("Ctrl+F") + "           Fullscreen result (Analyze)",
		"",
		StyleTitle.Render("Commands"),
		"",
		StyleHelpKey.Render(":primary <engine>") + "  Change the primary engine",
		StyleHelpKey.Render(":engines") + "           Open the engines tab",
		StyleHelpKey.Render(":dt") + "                List tables (SQL tab)",
		StyleHelpKey.Render(":quit") + "              Quit",
		"",
		StyleDimmed.Render("Press ? to close"),
	}

	contentHeight := a.height - 3
	box := lipgloss.NewStyle().
		Width(a.width-4).
		Height(contentHeight).
		Padding(1, 2).
		Render(strings.Join(help, "\n"))

	return box
}
