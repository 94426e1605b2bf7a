package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/witness"
)

// initCmd: witness init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := witness.WriteConfig(cfgFile, witness.DefaultConfig()); err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", cfgFile)
		return nil
	},
}
