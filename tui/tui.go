package tui

import (
	"context"
	"fmt"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/config"
	tea "github.com/charmbracelet/bubbletea"
)

// Start loads config, builds the analysis agent and launches the TUI.
func Start() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	agent, err := analysis.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer agent.Close()

	app := NewApp(agent)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}
