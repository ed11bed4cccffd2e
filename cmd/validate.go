package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/logging"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := logging.Check(logging.Config{
				Level:   cfg.Logging.Level,
				Format:  cfg.Logging.Format,
				Modules: cfg.Logging.Modules,
			}); err != nil {
				return fmt.Errorf("logging: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d devices)\n", configFile, len(cfg.Devices))
			return nil
		},
	}
}
