package main

import (
	"github.com/spf13/cobra"

	"github.com/stitchpdf/stitch/internal/compile"
	"github.com/stitchpdf/stitch/internal/pdf"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <in.pdf> <out.pdf>",
	Short: "Remove residual placeholder markers from a PDF",
	Long: `Remove residual %%OVERLAY_START_NN%% and %%MERGE_START_NN%% marker
tokens from a PDF.

Compile runs this automatically; the standalone command exists for
documents produced by an interrupted or external run.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		// Rebind to the output path first; the sweep rewrites the
		// document in place and the input must stay untouched.
		doc, err := pdf.Open(args[0])
		if err != nil {
			return err
		}
		if err := doc.SaveAs(args[1]); err != nil {
			return err
		}

		removed, err := compile.Sweep(doc, logger)
		if err != nil {
			return err
		}
		logger.Info("sweep complete", "output", args[1], "removed", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
