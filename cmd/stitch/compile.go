package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/stitchpdf/stitch/internal/compile"
	"github.com/stitchpdf/stitch/internal/config"
	"github.com/stitchpdf/stitch/internal/home"
)

var (
	compilePagesConfig string
	compileKeepTemp    bool
	compileWatch       bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <input> <output.pdf>",
	Short: "Compile a report into a single finalized PDF",
	Long: `Compile a source document into a single finalized PDF.

The input is normally a DOCX; its [[INSERT: ...]] placeholders are scanned,
markers are embedded, the document is rendered, and the overlay and merge
stages run over the result. An already-rendered PDF can be given instead,
in which case --pages-config must supply the placeholder descriptors.

Examples:
  stitch compile report.docx report.pdf
  stitch compile report.docx report.pdf --pages-config pages.yaml
  stitch compile rendered.pdf report.pdf --pages-config pages.yaml
  stitch compile report.docx report.pdf --watch`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		comp := compile.New(logger, cfg, h)
		opts := compile.Options{
			Input:    args[0],
			Output:   args[1],
			Manifest: compilePagesConfig,
			KeepTemp: compileKeepTemp,
		}

		if !compileWatch {
			_, err := comp.Run(ctx, opts)
			return err
		}
		return watchCompile(ctx, logger, comp, opts)
	},
}

// watchCompile recompiles whenever the input document changes. The first
// build runs immediately; later failures are logged and the loop keeps
// watching.
func watchCompile(ctx context.Context, logger *slog.Logger, comp *compile.Compiler, opts compile.Options) error {
	if _, err := comp.Run(ctx, opts); err != nil {
		logger.Error("compilation failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save
	// and the watch would die with the old inode.
	if err := watcher.Add(filepath.Dir(opts.Input)); err != nil {
		return err
	}
	logger.Info("watching for changes", "input", opts.Input)

	target, err := filepath.Abs(opts.Input)
	if err != nil {
		return err
	}

	var timer *time.Timer
	rebuild := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p, err := filepath.Abs(ev.Name)
			if err != nil || p != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Debounce; save operations fire several events in a burst.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-rebuild:
			logger.Info("input changed, recompiling", "input", opts.Input)
			if _, err := comp.Run(ctx, opts); err != nil {
				logger.Error("compilation failed", "error", err)
			}
		}
	}
}

func init() {
	compileCmd.Flags().StringVar(
		&compilePagesConfig, "pages-config", "", "YAML manifest of placeholder descriptors",
	)
	compileCmd.Flags().BoolVar(
		&compileKeepTemp, "keep-temp", false, "keep intermediate files for debugging",
	)
	compileCmd.Flags().BoolVar(
		&compileWatch, "watch", false, "recompile when the input document changes",
	)

	rootCmd.AddCommand(compileCmd)
}
