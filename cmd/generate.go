package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/witness"
	"github.com/gnolang/witness/internal/schema"
)

var (
	snapshotPath string
	outPath      string
)

// generateCmd: witness generate --snapshot s.yml [-o witness.yml]
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a witness from an analysis snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		out := outPath
		if out == "" {
			out = config.Path
		}

		summary, err := witness.Generate(cmd.Context(), logger, config, snapshotPath, out)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		total := 0
		for _, k := range schema.Kinds {
			if n := summary[k]; n > 0 {
				fmt.Fprintf(w, "%-42s %d\n", k, n)
				total += n
			}
		}
		fmt.Fprintf(w, "%s %d entries to %s\n", okStyle.Sprint("wrote"), total, out)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Analysis snapshot to generate from")
	generateCmd.Flags().StringVarP(&outPath, "output", "o", "", "Witness output path (defaults to the configured path)")
	_ = generateCmd.MarkFlagRequired("snapshot")
}
