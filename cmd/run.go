package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/core"
	"github.com/mohammad-safakhou/researcher/internal/research/telemetry"
)

func runCMD() *cobra.Command {
	var cfgPath string
	var run = &cobra.Command{
		Use:   "run [query]",
		Short: "Run a single research query and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			query := strings.Join(args, " ")

			tele := telemetry.NewTelemetry(cfg.Telemetry)
			defer tele.Shutdown()

			orch, err := core.NewPipeline(cfg, tele)
			if err != nil {
				return err
			}

			var failed bool
			for ev := range orch.Run(cmd.Context(), query) {
				if ev.Final {
					if ev.Stage == core.StageFailed {
						failed = true
						fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
					} else {
						fmt.Fprintln(cmd.OutOrStdout())
						fmt.Fprintln(cmd.OutOrStdout(), ev.Message)
					}
					continue
				}
				fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
			}
			if failed {
				return fmt.Errorf("research run failed")
			}
			return nil
		},
	}
	run.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return run
}
