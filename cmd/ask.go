package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DachengChen/sqlsage/analysis"
	"github.com/DachengChen/sqlsage/config"
	"github.com/DachengChen/sqlsage/executor"
	"github.com/spf13/cobra"
)

var (
	askEngine      string
	askNoFallback  bool
	askCorrections int
	askTimeout     int
	askPlot        bool
)

var askCmd = &cobra.Command{
	Use:   "ask \"question\"",
	Short: "Run one analysis and print the report",
	Long: `Runs the full plan/generate/execute/correct pipeline for a single
question and prints the plan, every execution attempt, the result table
and any charts. Exits non-zero when all engines are exhausted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if askNoFallback {
			cfg.Executor.EnableFallback = false
		}
		if cmd.Flags().Changed("corrections") {
			cfg.Executor.MaxCorrections = askCorrections
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Executor.AttemptTimeoutSecs = askTimeout
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		agent, err := analysis.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer agent.Close()

		rep, err := agent.Analyze(ctx, analysis.Request{
			Question: strings.Join(args, " "),
			Engine:   askEngine,
			Plot:     askPlot,
		})
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), rep)
		if rep.Status == executor.Exhausted {
			return fmt.Errorf("all engines exhausted: [%s] %s", rep.ErrKind, rep.ErrMessage)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askEngine, "engine", "", "primary engine for this question")
	askCmd.Flags().BoolVar(&askNoFallback, "no-fallback", false, "stay on the primary engine")
	askCmd.Flags().IntVar(&askCorrections, "corrections", 0, "max SQL corrections per engine")
	askCmd.Flags().IntVar(&askTimeout, "timeout", 0, "per-attempt timeout in seconds")
	askCmd.Flags().BoolVar(&askPlot, "plot", false, "chart the final result")
	rootCmd.AddCommand(askCmd)
}

func printReport(out io.Writer, rep *analysis.Report) {
	fmt.Fprintf(out, "session %s\n", rep.SessionID)

	if rep.Plan != nil {
		fmt.Fprintf(out, "\nplan: %s\n", rep.Plan.Goal)
		for _, s := range rep.Plan.Steps {
			fmt.Fprintf(out, "  %d. [%s] %s\n", s.ID, s.Tool, s.Description)
		}
	}

	if len(rep.Attempts) > 0 {
		fmt.Fprintln(out, "\nattempts:")
		for _, at := range rep.Attempts {
			fmt.Fprintf(out, "  %s\n", at.Summary())
		}
	}

	if rep.Status == executor.Succeeded && rep.Rows != nil {
		fmt.Fprintf(out, "\nsql: %s\n\n", rep.SQL)
		for _, line := range rep.Rows.Table() {
			fmt.Fprintln(out, line)
		}
	}

	for _, c := range rep.Charts {
		fmt.Fprintln(out)
		fmt.Fprint(out, c.Spec.Render(80))
		if c.Path != "" {
			fmt.Fprintf(out, "saved: %s\n", c.Path)
		}
	}

	for _, n := range rep.Notes {
		fmt.Fprintf(out, "note: %s\n", n)
	}

	m := rep.Metrics
	fmt.Fprintf(out, "\n%d attempt(s), %d correction(s), %d fallback(s) in %s\n",
		m.Attempts, m.Corrections, m.Fallbacks, m.Elapsed.Round(time.Millisecond))
}
