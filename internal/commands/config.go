// internal/commands/config.go
package metron

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

// configCmd groups configuration-related CLI commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Group commands for inspecting configuration",
}

// configShowCmd displays the effective configuration after file, environment,
// and flag overrides have been applied.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration was not loaded")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", cfg.ConfigPath)
		pp.Println(*cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}
