package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stitchpdf/stitch/internal/geom"
)

func TestCropPage(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "page.pdf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "page.pdf")
	if err := os.WriteFile(path, src, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Crop the 612x792 page to a 200x100 window near the top.
	if err := CropPage(path, 0, geom.NewRect(50, 60, 250, 160), 792); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, attrs, err := doc.pageDict(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cb := attrs.CropBox
	if cb == nil {
		t.Fatal("page has no crop box")
	}
	// (50,60)-(250,160) top-left maps to (50,632)-(250,732) native.
	if cb.LL.X != 50 || cb.LL.Y != 632 || cb.UR.X != 250 || cb.UR.Y != 732 {
		t.Errorf("crop box = %v, want [50 632 250 732]", cb)
	}
}

func TestOutlineNesting(t *testing.T) {
	entries := []OutlineEntry{
		{Title: "Introduction", Page: 0, Level: 0},
		{Title: "Methods", Page: 2, Level: 0},
		{Title: "Sampling", Page: 3, Level: 1},
		{Title: "Analysis", Page: 5, Level: 1},
		{Title: "Detail", Page: 6, Level: 2},
		{Title: "Results", Page: 8, Level: 0},
	}

	bms, _ := nestBookmarks(entries, 0, 0)
	if len(bms) != 3 {
		t.Fatalf("got %d top-level bookmarks, want 3", len(bms))
	}
	if bms[1].Title != "Methods" || len(bms[1].Kids) != 2 {
		t.Fatalf("Methods kids: %+v", bms[1])
	}
	if len(bms[1].Kids[1].Kids) != 1 || bms[1].Kids[1].Kids[0].Title != "Detail" {
		t.Errorf("nested kid wrong: %+v", bms[1].Kids[1])
	}
	if bms[2].PageFrom != 9 {
		t.Errorf("PageFrom = %d, want 9", bms[2].PageFrom)
	}

	var flat []OutlineEntry
	flattenBookmarks(bms, 0, &flat)
	if len(flat) != len(entries) {
		t.Fatalf("flatten: got %d entries, want %d", len(flat), len(entries))
	}
	for i := range entries {
		if flat[i] != entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, flat[i], entries[i])
		}
	}
}

func TestOutlineNestingOrphanLevel(t *testing.T) {
	// A first entry deeper than level 0 is adopted at the top level.
	entries := []OutlineEntry{
		{Title: "Stray", Page: 1, Level: 2},
		{Title: "Top", Page: 4, Level: 0},
	}
	bms, _ := nestBookmarks(entries, 0, 0)
	if len(bms) != 2 {
		t.Fatalf("got %d bookmarks, want 2", len(bms))
	}
	if bms[0].Title != "Stray" || bms[1].Title != "Top" {
		t.Errorf("order wrong: %+v", bms)
	}
}

func TestApplyPadding(t *testing.T) {
	page := geom.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}

	t.Run("expands and clips", func(t *testing.T) {
		box := geom.Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}
		got := ApplyPadding(box, page, 10)
		want := geom.Rect{X0: 90, Y0: 90, X1: 210, Y1: 210}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("clipped at page edge", func(t *testing.T) {
		box := geom.Rect{X0: 2, Y0: 2, X1: 610, Y1: 790}
		got := ApplyPadding(box, page, 10)
		if got != page {
			t.Errorf("got %+v, want full page %+v", got, page)
		}
	})
}

func TestFlipRect(t *testing.T) {
	native := geom.Rect{X0: 10, Y0: 700, X1: 110, Y1: 750}
	top := flipRect(native, 792)
	want := geom.Rect{X0: 10, Y0: 42, X1: 110, Y1: 92}
	if top != want {
		t.Errorf("flipRect = %+v, want %+v", top, want)
	}
	if back := flipRect(top, 792); back != native {
		t.Errorf("round trip = %+v, want %+v", back, native)
	}
}
