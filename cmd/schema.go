package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DachengChen/sqlsage/config"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [engine]",
	Short: "Print the dataset schema an engine exposes",
	Long: `Prints the schema snapshot in the same format the AI prompts use,
so you can see exactly what the generator grounds its SQL on. With no
argument the primary engine is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if _, ok := cfg.Engine(args[0]); !ok {
				return fmt.Errorf("unknown engine %q", args[0])
			}
			cfg.Executor.PrimaryEngine = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engines, err := engine.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer engine.CloseAll(engines)

		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		schema, err := engines[0].Schema(pctx)
		if err != nil {
			return fmt.Errorf("schema from %s: %w", engines[0].Name(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n%s", engines[0].Name(), schema.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
