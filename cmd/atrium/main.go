package main

import (
	"os"

	"github.com/spf13/cobra"

	"atrium/internal/interfaces/cli/migrate"
	"atrium/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "atrium",
		Short: "Atrium - authentication and session service",
		Long:  `Atrium is the authentication service: local credential and OAuth sign-in, session lifecycle, and a managed identity platform bridge.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
