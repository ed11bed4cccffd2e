// Package cmd holds the flux2mqtt CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

// Execute runs the CLI. version is stamped by the build.
func Execute(version string) error {
	root := &cobra.Command{
		Use:           "flux2mqtt",
		Short:         "Bridge flux LED controllers into Home Assistant over MQTT",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "config.toml", "path to configuration file")

	root.AddCommand(newServeCmd(version))
	root.AddCommand(newValidateCmd())
	return root.Execute()
}
