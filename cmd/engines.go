package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DachengChen/sqlsage/config"
	"github.com/DachengChen/sqlsage/engine"
	"github.com/spf13/cobra"
)

const probeTimeout = 10 * time.Second

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List configured engines and probe each one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engines, err := engine.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer engine.CloseAll(engines)

		out := cmd.OutOrStdout()
		for i, eng := range engines {
			ec, _ := cfg.Engine(eng.Name())
			role := "fallback"
			if i == 0 {
				role = "primary"
			}
			fmt.Fprintf(out, "%-12s %-8s %-10s %s\n", eng.Name(), ec.Driver, role, target(ec))
			fmt.Fprintf(out, "             %s\n", probe(ctx, eng))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}

// probe fetches the schema once and reports table count and latency.
func probe(ctx context.Context, eng engine.Engine) string {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	schema, err := eng.Schema(pctx)
	if err != nil {
		return fmt.Sprintf("unreachable: %v", err)
	}
	return fmt.Sprintf("ok: %d table(s) in %s", len(schema.Tables), time.Since(start).Round(time.Millisecond))
}

func target(ec config.EngineConfig) string {
	switch ec.Driver {
	case "sqlite":
		return ec.Path
	case "postgres":
		t := fmt.Sprintf("%s@%s:%d/%s", ec.User, ec.Host, ec.Port, ec.Database)
		if ec.SSH.Enabled {
			t += " (via ssh " + ec.SSH.Host + ")"
		}
		return t
	default:
		return ""
	}
}
