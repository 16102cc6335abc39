package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stitchpdf/stitch/version"
)

var (
	cfgFile string
	homeDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Compile reports by stitching PDF appendices into a rendered base document",
	Long: `Stitch turns a DOCX report containing [[INSERT: ...]] placeholders into a
single finalized PDF.

The pipeline:
  - Scan the source document for placeholders and reserved-table geometry
  - Embed marker tokens and render the base PDF with an external converter
  - Overlay cropped appendix pages into reserved table rectangles
  - Merge whole appendix page ranges and reconcile the table of contents
  - Sweep any residual marker tokens from the output`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./stitch.yaml or ~/.stitch/stitch.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "stitch home directory (default: ~/.stitch)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
