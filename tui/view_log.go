// view_log.go — Tail view for the application and AI exchange logs.
//
// Refreshes periodically using tea.Tick. The user can pause/resume
// streaming and flip between app.log (events, engine lifecycle) and
// ai.log (full provider exchanges).
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DachengChen/sqlsage/ai"
	"github.com/DachengChen/sqlsage/applog"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	logRefreshInterval = 2 * time.Second
	logTailLines       = 500
)

type LogView struct {
	viewport *Viewport
	source   string // "app" or "ai"
	paused   bool
	follow   bool
	ticking  bool
	err      error
	width    int
	height   int
}

func NewLogView() *LogView {
	return &LogView{
		viewport: NewViewport(80, 20),
		source:   "app",
		follow:   true,
	}
}

func (v *LogView) Name() string         { return "Log" }
func (v *LogView) WantsTextInput() bool { return false }

func (v *LogView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.SetSize(width-2, height-2)
}

func (v *LogView) ShortHelp() []KeyBinding {
	pause := "pause"
	if v.paused {
		pause = "resume"
	}
	return []KeyBinding{
		{Key: "p", Desc: pause},
		{Key: "a", Desc: "app/ai log"},
		{Key: "f", Desc: "follow"},
		{Key: "j/k", Desc: "scroll"},
	}
}

// tickMsg triggers periodic refresh.
type tickMsg time.Time

func (v *LogView) Init() tea.Cmd {
	// Init runs on every tab switch; keep a single tick chain alive.
	if v.ticking {
		return v.fetchLog()
	}
	v.ticking = true
	return tea.Batch(v.fetchLog(), v.tick())
}

func (v *LogView) tick() tea.Cmd {
	return tea.Tick(logRefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (v *LogView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case tickMsg:
		if !v.paused {
			return v, tea.Batch(v.fetchLog(), v.tick())
		}
		return v, v.tick()

	case LogTailMsg:
		if msg.Source != v.source {
			return v, nil
		}
		v.err = msg.Err
		if msg.Err != nil {
			v.viewport.SetContentLines([]string{StyleError.Render("ERROR: " + msg.Err.Error())})
			return v, nil
		}
		v.viewport.SetContentLines(msg.Lines)
		if v.follow {
			v.viewport.End()
		}
		return v, nil
	}

	return v, nil
}

func (v *LogView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "p":
		v.paused = !v.paused
		return v, nil
	case "a":
		if v.source == "app" {
			v.source = "ai"
		} else {
			v.source = "app"
		}
		v.viewport.SetContentLines([]string{StyleDimmed.Render("loading " + v.source + " log...")})
		return v, v.fetchLog()
	case "f":
		v.follow = !v.follow
		if v.follow {
			v.viewport.End()
		}
		return v, nil
	case "k", "up", "ctrl+k":
		v.follow = false
		v.viewport.ScrollUp(1)
	case "j", "down", "ctrl+j":
		v.viewport.ScrollDown(1)
	case "h", "left":
		v.viewport.ScrollLeft(8)
	case "l", "right":
		v.viewport.ScrollRight(8)
	case "pgup":
		v.follow = false
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "home", "g":
		v.follow = false
		v.viewport.Home()
	case "end", "G":
		v.follow = true
		v.viewport.End()
	case "ctrl+w":
		v.viewport.ToggleWrap()
	}
	return v, nil
}

func (v *LogView) fetchLog() tea.Cmd {
	source := v.source
	return func() tea.Msg {
		path := applog.Path()
		if source == "ai" {
			path = ai.LogPath()
		}
		if path == "" {
			return LogTailMsg{Source: source, Err: fmt.Errorf("%s log unavailable", source)}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return LogTailMsg{Source: source, Err: err}
		}

		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > logTailLines {
			lines = lines[len(lines)-logTailLines:]
		}
		return LogTailMsg{Source: source, Lines: lines}
	}
}

func (v *LogView) View() string {
	status := StyleSuccess.Render("● STREAMING")
	if v.paused {
		status = StyleWarning.Render("● PAUSED")
	}

	label := "app.log"
	if v.source == "ai" {
		label = "ai.log"
	}

	header := fmt.Sprintf("  %s  %s  %s",
		StyleTitle.Render("▤ "+label),
		status,
		StyleDimmed.Render(fmt.Sprintf("(last %d lines)", logTailLines)))

	content := v.viewport.Render()

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}
