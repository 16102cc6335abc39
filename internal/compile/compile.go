// Package compile orchestrates the whole report build: scan, marker
// embedding, rendering, the overlay and merge stages, and the final
// marker sweep.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/stitchpdf/stitch/internal/config"
	"github.com/stitchpdf/stitch/internal/docx"
	"github.com/stitchpdf/stitch/internal/home"
	"github.com/stitchpdf/stitch/internal/merge"
	"github.com/stitchpdf/stitch/internal/overlay"
	"github.com/stitchpdf/stitch/internal/pageselect"
	"github.com/stitchpdf/stitch/internal/pdf"
	"github.com/stitchpdf/stitch/internal/placeholder"
	"github.com/stitchpdf/stitch/internal/render"
)

// ErrNotFound classifies a missing or unreadable appendix. Only I/O
// failures on the documents being built abort a run; everything else
// degrades into a recorded skip.
var ErrNotFound = errors.New("not found")

// Skipped is one placeholder (or continuation page) the run completed
// without.
type Skipped struct {
	Marker string
	Reason string
}

// Report summarizes a completed run.
type Report struct {
	Output   string
	Overlays int
	Merges   int
	Skipped  []Skipped
}

// Options select the input and output of one run.
type Options struct {
	// Input is the source document: a .docx for the full pipeline, or
	// an already-rendered .pdf when Manifest is given.
	Input  string
	Output string
	// Manifest is a YAML descriptor list for PDF inputs whose
	// placeholders were produced externally.
	Manifest string
	KeepTemp bool
}

// Compiler runs report builds.
type Compiler struct {
	log *slog.Logger
	cfg *config.Config
	hd  *home.Dir
}

// New returns a compiler using the stitch home dir for temp files.
func New(log *slog.Logger, cfg *config.Config, hd *home.Dir) *Compiler {
	return &Compiler{log: log, cfg: cfg, hd: hd}
}

// Run executes one build.
func (c *Compiler) Run(ctx context.Context, opts Options) (*Report, error) {
	ws, err := home.NewWorkspace(c.hd, opts.KeepTemp)
	if err != nil {
		return nil, err
	}
	defer func() {
		ws.Cleanup()
		if ws.Kept() {
			c.log.Info("intermediate files kept", "dir", c.hd.WorkPath())
		}
	}()

	switch strings.ToLower(filepath.Ext(opts.Input)) {
	case ".docx":
		return c.runDocx(ctx, ws, opts)
	case ".pdf":
		if opts.Manifest == "" {
			return nil, fmt.Errorf("PDF input %s needs a descriptor manifest (--pages-config)", opts.Input)
		}
		man, err := placeholder.LoadManifest(opts.Manifest)
		if err != nil {
			return nil, err
		}
		baseDir := filepath.Dir(opts.Input)
		man, skipped := c.prepare(man, baseDir)
		report, err := c.runPDF(ws, opts, man, baseDir)
		if report != nil {
			report.Skipped = append(skipped, report.Skipped...)
		}
		return report, err
	default:
		return nil, fmt.Errorf("unsupported input %s: want .docx or .pdf", opts.Input)
	}
}

// runDocx is the full pipeline: scan placeholders (or take them from an
// externally built manifest), embed markers, render, then hand over to
// the PDF stages.
func (c *Compiler) runDocx(ctx context.Context, ws *home.Workspace, opts Options) (*Report, error) {
	src, err := docx.Load(opts.Input)
	if err != nil {
		return nil, err
	}
	man, err := src.Scan(c.log)
	if err != nil {
		return nil, err
	}
	if opts.Manifest != "" {
		ext, err := placeholder.LoadManifest(opts.Manifest)
		if err != nil {
			return nil, err
		}
		c.applyOverrides(man, ext)
	}
	baseDir := filepath.Dir(opts.Input)

	man, skipped := c.prepare(man, baseDir)
	if len(man.Overlays)+len(man.Merges) == 0 {
		c.log.Warn("no usable placeholders found, output will be the rendered document as-is")
	}
	if opts.KeepTemp {
		// Kept alongside the other intermediates so a failed run can be
		// replayed against the PDF stages alone.
		p := ws.TempPath("pages", ".yaml")
		if err := placeholder.SaveManifest(man, p); err != nil {
			c.log.Warn("could not write descriptor manifest", "path", p, "error", err)
		}
	}

	if err := src.Embed(man); err != nil {
		return nil, err
	}
	staged := ws.TempPath("source", ".docx")
	if err := src.Save(staged); err != nil {
		return nil, err
	}

	rendered, err := render.New(c.log, c.cfg.Render).Render(ctx, staged, filepath.Dir(staged))
	if err != nil {
		return nil, err
	}
	c.log.Info("base document rendered", "pdf", rendered)

	opts.Input = rendered
	report, err := c.runPDF(ws, opts, man, baseDir)
	if report != nil {
		report.Skipped = append(skipped, report.Skipped...)
	}
	return report, err
}

// runPDF applies the overlay and merge stages to a rendered base
// document and writes the finalized output.
func (c *Compiler) runPDF(ws *home.Workspace, opts Options, man *placeholder.Manifest, baseDir string) (*Report, error) {
	work := ws.TempPath("base", ".pdf")
	if err := copyFile(opts.Input, work); err != nil {
		return nil, err
	}
	doc, err := pdf.Open(work)
	if err != nil {
		return nil, err
	}

	report := &Report{Output: opts.Output, Overlays: len(man.Overlays), Merges: len(man.Merges)}

	ovSkips, err := overlay.New(c.log, ws, c.cfg.Crop).Apply(doc, man.Overlays, baseDir)
	for _, s := range ovSkips {
		report.Skipped = append(report.Skipped, Skipped(s))
	}
	if err != nil {
		return report, err
	}

	mgSkips, err := merge.New(c.log, ws, c.cfg.Toc.HeadingKeyword).Apply(doc, man.Merges, baseDir)
	for _, s := range mgSkips {
		report.Skipped = append(report.Skipped, Skipped(s))
	}
	if err != nil {
		return report, err
	}

	swept, err := Sweep(doc, c.log)
	if err != nil {
		return report, err
	}
	if swept > 0 {
		c.log.Info("residual markers removed", "count", swept)
	}

	if err := copyFile(doc.Path(), opts.Output); err != nil {
		return report, err
	}
	c.log.Info("report compiled", "output", opts.Output,
		"overlays", report.Overlays, "merges", report.Merges, "skipped", len(report.Skipped))
	for _, s := range report.Skipped {
		c.log.Warn("placeholder omitted from output", "marker", s.Marker, "reason", s.Reason)
	}
	return report, nil
}

// applyOverrides replaces the source path and page spec of scanned
// placeholders with manifest entries matched by index. Table geometry
// always comes from the scan; the manifest cannot invent placeholders
// the document does not carry.
func (c *Compiler) applyOverrides(man, ext *placeholder.Manifest) {
	for _, o := range ext.Overlays {
		found := false
		for i := range man.Overlays {
			if man.Overlays[i].Index != o.Index {
				continue
			}
			if o.SourcePath != "" {
				man.Overlays[i].SourcePath = o.SourcePath
			}
			man.Overlays[i].PageSpec = o.PageSpec
			man.Overlays[i].CropEnabled = o.CropEnabled
			found = true
			break
		}
		if !found {
			c.log.Warn("manifest overlay has no matching placeholder in the document", "index", o.Index)
		}
	}
	for _, m := range ext.Merges {
		found := false
		for i := range man.Merges {
			if man.Merges[i].Index != m.Index {
				continue
			}
			if m.SourcePath != "" {
				man.Merges[i].SourcePath = m.SourcePath
			}
			man.Merges[i].PageSpec = m.PageSpec
			found = true
			break
		}
		if !found {
			c.log.Warn("manifest merge has no matching placeholder in the document", "index", m.Index)
		}
	}
}

// prepare validates each placeholder's appendix up front and assigns
// continuation markers to multi-page overlays. Placeholders whose
// appendix cannot be opened are dropped with a skip record.
func (c *Compiler) prepare(man *placeholder.Manifest, baseDir string) (*placeholder.Manifest, []Skipped) {
	var skipped []Skipped
	out := &placeholder.Manifest{}

	for _, ov := range man.Overlays {
		src := placeholder.ResolveSource(ov, baseDir)
		n, err := pdf.PageCountFile(src)
		if err != nil {
			c.log.Warn("appendix unusable, skipping placeholder",
				"marker", ov.MarkerText, "path", src, "error", err)
			skipped = append(skipped, Skipped{Marker: ov.MarkerText, Reason: fmt.Sprintf("appendix %v: %s", ErrNotFound, src)})
			continue
		}
		pages := len(pageselect.Resolve(ov.PageSpec, n, c.log.With("marker", ov.MarkerText)))
		ov.Continuations = placeholder.ContinuationsFor(ov.Index, pages)
		out.Overlays = append(out.Overlays, ov)
	}
	for _, mg := range man.Merges {
		src := placeholder.ResolveSource(mg, baseDir)
		if _, err := pdf.PageCountFile(src); err != nil {
			c.log.Warn("appendix unusable, skipping placeholder",
				"marker", mg.MarkerText, "path", src, "error", err)
			skipped = append(skipped, Skipped{Marker: mg.MarkerText, Reason: fmt.Sprintf("appendix %v: %s", ErrNotFound, src)})
			continue
		}
		out.Merges = append(out.Merges, mg)
	}
	return out, skipped
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
