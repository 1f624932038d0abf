package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), resolveConfigPath(configPath))
	}

	root := &cobra.Command{
		Use:           "mqttlight",
		Short:         "Bridge an MQTT light into a local entity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bridge until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", date)
		},
	}
}
