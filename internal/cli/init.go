package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/swarmdock-dev/swarmdock/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .swarmdock/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(dataDir, ".swarmdock", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}

		if err := config.WriteConfig(dataDir, config.DefaultConfig()); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}

		fmt.Printf("Wrote %s\n", configPath)
		fmt.Println("Add per-owner API keys under the credentials: section before serving.")
		return nil
	},
}
