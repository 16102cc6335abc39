package merge

import (
	"path/filepath"
	"testing"

	"github.com/stitchpdf/stitch/internal/geom"
	"github.com/stitchpdf/stitch/internal/home"
	"github.com/stitchpdf/stitch/internal/pdf"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

// Fixture pages are told apart by width: letter.pdf pages are 612pt
// wide, square.pdf pages 500pt.
const (
	letterWidth = 612.0
	squareWidth = 500.0
)

func testWorkspace(t *testing.T) *home.Workspace {
	t.Helper()
	dir, err := home.New(filepath.Join(t.TempDir(), ".stitch"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws, err := home.NewWorkspace(dir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(ws.Cleanup)
	return ws
}

// buildDoc concatenates n copies of the fixture at src into a fresh
// file and opens it.
func buildDoc(t *testing.T, src string, n int) *pdf.Document {
	t.Helper()
	parts := make([]string, n)
	for i := range parts {
		parts[i] = src
	}
	out := filepath.Join(t.TempDir(), "doc.pdf")
	if err := pdf.Concatenate(parts, out); err != nil {
		t.Fatalf("building %d-page fixture: %v", n, err)
	}
	doc, err := pdf.Open(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return doc
}

func pageWidths(t *testing.T, doc *pdf.Document) []float64 {
	t.Helper()
	widths := make([]float64, doc.PageCount())
	for i := range widths {
		r, err := doc.PageRect(i)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		widths[i] = r.Width()
	}
	return widths
}

func fixturePath(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestApplyPlacements(t *testing.T) {
	square := fixturePath(t, "square.pdf")

	// A three-page appendix for the first insertion.
	appendix3 := filepath.Join(t.TempDir(), "appendix3.pdf")
	if err := pdf.Concatenate([]string{square, square, square}, appendix3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := buildDoc(t, fixturePath(t, "letter.pdf"), 4)
	e := New(discard(), testWorkspace(t), "appendix")

	markerRect := func(page int) pdf.MarkerMatch {
		return pdf.MarkerMatch{Page: page, Rect: geom.NewRect(72, 72, 200, 84)}
	}
	placements := []placement{
		{
			merge:        placeholder.Merge{Index: 1, MarkerText: placeholder.MergeMarker(1), SourcePath: appendix3},
			originalPage: 0,
			match:        markerRect(0),
		},
		{
			merge:        placeholder.Merge{Index: 2, MarkerText: placeholder.MergeMarker(2), SourcePath: square},
			originalPage: 1,
			match:        markerRect(1),
		},
	}

	skips, err := e.applyPlacements(doc, placements, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}

	// 4 base pages + 3 after page 0 + 1 after the shifted page 1.
	if doc.PageCount() != 8 {
		t.Fatalf("page count = %d, want 8", doc.PageCount())
	}
	want := []float64{
		letterWidth,
		squareWidth, squareWidth, squareWidth,
		letterWidth,
		squareWidth,
		letterWidth, letterWidth,
	}
	for i, w := range pageWidths(t, doc) {
		if w != want[i] {
			t.Errorf("page %d width = %.0f, want %.0f", i, w, want[i])
		}
	}
}

func TestApplyPlacementsOutOfBounds(t *testing.T) {
	doc := buildDoc(t, fixturePath(t, "letter.pdf"), 2)
	e := New(discard(), testWorkspace(t), "appendix")

	placements := []placement{{
		merge:        placeholder.Merge{Index: 1, MarkerText: placeholder.MergeMarker(1), SourcePath: fixturePath(t, "square.pdf")},
		originalPage: 99,
		match:        pdf.MarkerMatch{Page: 99},
	}}

	skips, err := e.applyPlacements(doc, placements, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skips) != 1 || skips[0].Reason != "marker page out of bounds" {
		t.Fatalf("skips = %+v, want one out-of-bounds skip", skips)
	}
	if doc.PageCount() != 2 {
		t.Errorf("page count = %d, document must be untouched", doc.PageCount())
	}
}

func TestApplySkipsMissingMarker(t *testing.T) {
	doc := buildDoc(t, fixturePath(t, "letter.pdf"), 2)
	e := New(discard(), testWorkspace(t), "appendix")

	merges := []placeholder.Merge{{
		Index:      1,
		MarkerText: placeholder.MergeMarker(1),
		SourcePath: fixturePath(t, "square.pdf"),
	}}

	skips, err := e.Apply(doc, merges, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skips) != 1 || skips[0].Reason != "marker not found" {
		t.Fatalf("skips = %+v, want one missing-marker skip", skips)
	}
	if doc.PageCount() != 2 {
		t.Errorf("page count = %d, document must be untouched", doc.PageCount())
	}
}
