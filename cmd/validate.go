package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/witness"
	"github.com/gnolang/witness/internal/validate"
)

var (
	witnessPath     string
	certificatePath string
	watchMode       bool
	showProgress    bool
)

// validateCmd: witness validate --snapshot s.yml --witness w.yml
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a witness against an analysis snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		opts := witness.ValidateOptions{
			Snapshot:    snapshotPath,
			Witness:     witnessPath,
			Certificate: certificatePath,
		}
		if opts.Witness == "" {
			opts.Witness = config.Validate.Path
		}
		if opts.Certificate == "" {
			opts.Certificate = config.Validate.Certificate
		}
		if opts.Witness == "" {
			return fmt.Errorf("no witness given: use --witness or validate.path")
		}

		w := cmd.OutOrStdout()
		if watchMode {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return witness.Watch(ctx, logger, config, opts, func(stats validate.Stats, err error) {
				if err != nil {
					logger.Error("validation failed", zap.Error(err))
					return
				}
				printSummary(w, stats)
			})
		}

		if showProgress {
			bar := newProgressBar(cmd.ErrOrStderr())
			opts.OnRecord = func(done, total int) {
				bar.ChangeMax(total)
				_ = bar.Set(done)
			}
			defer fmt.Fprintln(cmd.ErrOrStderr())
		}

		stats, err := witness.Validate(cmd.Context(), logger, config, opts)
		if err != nil {
			return err
		}
		printSummary(w, stats)
		return nil
	},
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("validating"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func init() {
	validateCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Analysis snapshot to validate against")
	validateCmd.Flags().StringVar(&witnessPath, "witness", "", "Witness to validate (defaults to validate.path)")
	validateCmd.Flags().StringVar(&certificatePath, "certificate", "", "Write the certified witness here")
	validateCmd.Flags().BoolVar(&watchMode, "watch", false, "Revalidate whenever the snapshot or witness changes")
	validateCmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar")
	_ = validateCmd.MarkFlagRequired("snapshot")
}
