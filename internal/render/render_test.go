package render

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stitchpdf/stitch/internal/config"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExpand(t *testing.T) {
	template := []string{"soffice", "--headless", "--convert-to", "pdf", "--outdir", "{outdir}", "{input}"}
	got := expand(template, "/tmp/report.docx", "/tmp/out")
	if got[5] != "/tmp/out" || got[6] != "/tmp/report.docx" {
		t.Errorf("expand = %v", got)
	}
	// Template itself is untouched.
	if template[5] != "{outdir}" {
		t.Error("expand mutated the template")
	}
}

func TestOutputPath(t *testing.T) {
	got := outputPath("/src/site report.docx", "/work")
	want := filepath.Join("/work", "site report.pdf")
	if got != want {
		t.Errorf("outputPath = %q, want %q", got, want)
	}
}

func TestRenderMissingCommand(t *testing.T) {
	r := New(discard(), config.RenderConfig{Attempts: 1})
	if _, err := r.Render(context.Background(), "in.docx", t.TempDir()); err == nil {
		t.Fatal("expected error for empty command template")
	}
}

func TestRenderFallback(t *testing.T) {
	dir := t.TempDir()
	// Primary always fails; fallback writes the expected file.
	cfg := config.RenderConfig{
		Primary:        []string{"false"},
		Fallback:       []string{"cp", "testdata/minimal.pdf", filepath.Join(dir, "report.pdf")},
		Attempts:       1,
		TimeoutSeconds: 10,
	}
	r := New(discard(), cfg)
	got, err := r.Render(context.Background(), "report.docx", dir)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != filepath.Join(dir, "report.pdf") {
		t.Errorf("output path = %q", got)
	}
}
