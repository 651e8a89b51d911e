// Package cmd contains all Cobra commands for sqlsage.
//
// Design decision: the root command launches the TUI directly. Engine
// and provider configuration lives in ~/.sqlsage/config.json, not in
// flags; subcommand flags only override settings for one invocation.
package cmd

import (
	"github.com/DachengChen/sqlsage/applog"
	"github.com/DachengChen/sqlsage/tui"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlsage",
	Short: "Self-correcting SQL analysis agent with TUI",
	Long: `sqlsage answers natural-language questions with SQL analyses:
  • AI planner, generator, and corrector (OpenAI, Anthropic, Gemini, Ollama, offline)
  • Self-correcting executor with engine fallback (embedded SQLite, PostgreSQL)
  • Every execution attempt recorded and inspectable
  • Terminal charts, saved as JSON specs

Run 'sqlsage' to start the TUI, or 'sqlsage ask "question"' for a one-shot analysis.`,
	SilenceUsage: true,
	// Running with no subcommand launches the TUI.
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Start()
	},
}

// Execute runs the root command.
func Execute() error {
	defer applog.Close()
	return rootCmd.Execute()
}
