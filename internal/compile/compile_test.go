package compile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stitchpdf/stitch/internal/config"
	"github.com/stitchpdf/stitch/internal/home"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCompiler(t *testing.T) *Compiler {
	t.Helper()
	hd, err := home.New(filepath.Join(t.TempDir(), ".stitch"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(testLogger(), config.DefaultConfig(), hd)
}

func TestRunRejectsBadInputs(t *testing.T) {
	c := testCompiler(t)
	ctx := context.Background()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := c.Run(ctx, Options{Input: "report.odt", Output: "out.pdf"})
		if err == nil || !strings.Contains(err.Error(), "unsupported input") {
			t.Fatalf("expected unsupported input error, got %v", err)
		}
	})

	t.Run("missing docx", func(t *testing.T) {
		_, err := c.Run(ctx, Options{Input: filepath.Join(t.TempDir(), "report.docx"), Output: "out.pdf"})
		if err == nil {
			t.Fatal("expected error for missing source document")
		}
	})

	t.Run("pdf without manifest", func(t *testing.T) {
		_, err := c.Run(ctx, Options{Input: "report.pdf", Output: "out.pdf"})
		if err == nil || !strings.Contains(err.Error(), "descriptor manifest") {
			t.Fatalf("expected missing manifest error, got %v", err)
		}
	})
}

func TestPrepareSkipsMissingAppendices(t *testing.T) {
	c := testCompiler(t)
	man := &placeholder.Manifest{
		Overlays: []placeholder.Overlay{{
			Index:          1,
			MarkerText:     placeholder.OverlayMarker(1),
			SourcePath:     "appendices/nope.pdf",
			TableWidthPts:  400,
			TableHeightPts: 300,
		}},
		Merges: []placeholder.Merge{{
			Index:      1,
			MarkerText: placeholder.MergeMarker(1),
			SourcePath: "appendices/gone.pdf",
		}},
	}

	out, skipped := c.prepare(man, t.TempDir())
	if len(out.Overlays) != 0 || len(out.Merges) != 0 {
		t.Fatalf("expected all placeholders dropped, got %d overlays %d merges",
			len(out.Overlays), len(out.Merges))
	}
	if len(skipped) != 2 {
		t.Fatalf("expected 2 skip records, got %d", len(skipped))
	}
	for _, s := range skipped {
		if !strings.Contains(s.Reason, "not found") {
			t.Errorf("skip reason %q does not classify the failure", s.Reason)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	c := testCompiler(t)
	man := &placeholder.Manifest{
		Overlays: []placeholder.Overlay{{
			Index: 1, MarkerText: placeholder.OverlayMarker(1),
			SourcePath: "a.pdf", PageSpec: "1", CropEnabled: true,
			TableWidthPts: 400, TableHeightPts: 300,
		}},
		Merges: []placeholder.Merge{{
			Index: 1, MarkerText: placeholder.MergeMarker(1), SourcePath: "b.pdf",
		}},
	}
	ext := &placeholder.Manifest{
		Overlays: []placeholder.Overlay{
			{Index: 1, SourcePath: "override.pdf", PageSpec: "2-4"},
			{Index: 9, SourcePath: "phantom.pdf"},
		},
		Merges: []placeholder.Merge{{Index: 1, PageSpec: "1-3"}},
	}

	c.applyOverrides(man, ext)

	ov := man.Overlays[0]
	if ov.SourcePath != "override.pdf" || ov.PageSpec != "2-4" || ov.CropEnabled {
		t.Errorf("overlay override not applied: %+v", ov)
	}
	if ov.TableWidthPts != 400 || ov.TableHeightPts != 300 {
		t.Errorf("table geometry must come from the scan, got %+v", ov)
	}
	if man.Merges[0].SourcePath != "b.pdf" || man.Merges[0].PageSpec != "1-3" {
		t.Errorf("merge override not applied: %+v", man.Merges[0])
	}
	if len(man.Overlays) != 1 {
		t.Errorf("manifest must not invent placeholders, got %d overlays", len(man.Overlays))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("expected payload, got %q", got)
	}

	if err := copyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("expected error for missing source")
	}
}
