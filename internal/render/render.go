// Package render drives the external document-to-PDF renderer, with
// retries on the primary command and a configurable fallback.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/stitchpdf/stitch/internal/config"
)

// Renderer converts a source document into the base PDF.
type Renderer struct {
	log *slog.Logger
	cfg config.RenderConfig
}

// New returns a renderer using the configured command templates.
func New(log *slog.Logger, cfg config.RenderConfig) *Renderer {
	return &Renderer{log: log, cfg: cfg}
}

// Render converts input into a PDF inside outDir and returns the
// produced file's path. The primary command is retried up to the
// configured attempts; if it never succeeds the fallback command gets
// the same treatment.
func (r *Renderer) Render(ctx context.Context, input, outDir string) (string, error) {
	want := outputPath(input, outDir)

	err := r.renderWith(ctx, r.cfg.Primary, input, outDir, want)
	if err == nil {
		return want, nil
	}
	if len(r.cfg.Fallback) == 0 {
		return "", fmt.Errorf("rendering %s: %w", input, err)
	}

	r.log.Warn("primary renderer failed, trying fallback",
		"renderer", r.cfg.Primary[0], "fallback", r.cfg.Fallback[0], "error", err)
	if err := r.renderWith(ctx, r.cfg.Fallback, input, outDir, want); err != nil {
		return "", fmt.Errorf("rendering %s with fallback: %w", input, err)
	}
	return want, nil
}

func (r *Renderer) renderWith(ctx context.Context, template []string, input, outDir, want string) error {
	if len(template) == 0 {
		return fmt.Errorf("empty renderer command")
	}
	args := expand(template, input, outDir)

	return retry.Do(
		func() error {
			runCtx := ctx
			if r.cfg.TimeoutSeconds > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.TimeoutSeconds)*time.Second)
				defer cancel()
			}

			r.log.Debug("invoking renderer", "cmd", strings.Join(args, " "))
			cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
			out, err := cmd.CombinedOutput()
			if err != nil {
				// Some renderers report errors yet still produce the file.
				if _, statErr := os.Stat(want); statErr == nil {
					r.log.Warn("renderer reported an error but produced output",
						"renderer", args[0], "error", err)
					return nil
				}
				return fmt.Errorf("%s: %w (output: %s)", args[0], err, strings.TrimSpace(string(out)))
			}
			if _, err := os.Stat(want); err != nil {
				return fmt.Errorf("%s exited cleanly but %s was not produced", args[0], want)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.cfg.Attempts),
		retry.Delay(2*time.Second),
	)
}

// expand substitutes {input} and {outdir} in the command template.
func expand(template []string, input, outDir string) []string {
	args := make([]string, len(template))
	for i, a := range template {
		a = strings.ReplaceAll(a, "{input}", input)
		a = strings.ReplaceAll(a, "{outdir}", outDir)
		args[i] = a
	}
	return args
}

// outputPath is where the renderer drops the converted file: the
// input's base name with a .pdf extension inside outDir.
func outputPath(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+".pdf")
}
