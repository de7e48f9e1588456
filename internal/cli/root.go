// Package cli defines Cobra command definitions for the swarmdock CLI.
// This file contains the root command and global flags.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir string
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "swarmdock",
	Short: "Web backend for tracking swarm sessions",
	Long: `Swarmdock tracks swarm sessions executed by an external CLI tool.
It shells out to the swarm CLI, relays its output to the web UI as
server-sent events, and persists sessions, workers, memory operations,
agent metrics, and templates in SQLite.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "Directory holding .swarmdock/ config, database, and event log")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
}
