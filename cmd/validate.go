// Package cmd implements CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/flowsniff/internal/config"
)

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Validate a flowsniff configuration file without capturing.

The file may be given as an argument or through --config.

Examples:
  flowsniff validate /etc/flowsniff/config.yml
  flowsniff validate -c config.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("a config file is required")
			}

			cfg, err := config.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
				return err
			}

			sinks := "console"
			if cfg.Report.Kafka.Enabled {
				sinks += ", kafka"
			}
			if cfg.Report.NATS.Enabled {
				sinks += ", nats"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VALID: source=%s interval=%s format=%s sinks=[%s]\n",
				cfg.Capture.Source, cfg.Report.Interval, cfg.Report.Format, sinks)
			return nil
		},
	}
}
