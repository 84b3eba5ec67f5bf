package main

import (
	"fmt"
	"os"

	"github.com/go-auth-flow/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "Operator tooling for the auth flow service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
