package merge

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stitchpdf/stitch/internal/pdf"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpliceOutline(t *testing.T) {
	master := []pdf.OutlineEntry{
		{Title: "Introduction", Page: 0, Level: 0},
		{Title: "Appendix A - Pump Curves", Page: 5, Level: 0},
		{Title: "Conclusion", Page: 6, Level: 0},
	}
	appendix := []pdf.OutlineEntry{
		{Title: "Curve Set 1", Page: 0, Level: 0},
		{Title: "Detail", Page: 1, Level: 1},
	}

	t.Run("nests under matching heading", func(t *testing.T) {
		// Marker on page 5, three pages inserted at page 6. The appendix
		// entries sit one level below the heading, so they rebuild as
		// its children, not its siblings.
		got := spliceOutline(master, appendix, 6, 3, "appendix", discard())
		want := []pdf.OutlineEntry{
			{Title: "Introduction", Page: 0, Level: 0},
			{Title: "Appendix A - Pump Curves", Page: 5, Level: 0},
			{Title: "Curve Set 1", Page: 6, Level: 1},
			{Title: "Detail", Page: 7, Level: 2},
			{Title: "Conclusion", Page: 9, Level: 0},
		}
		if len(got) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("entry %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("heading level deepens nesting", func(t *testing.T) {
		deep := []pdf.OutlineEntry{
			{Title: "Appendices", Page: 4, Level: 0},
			{Title: "Appendix B", Page: 5, Level: 1},
		}
		got := spliceOutline(deep, appendix, 6, 2, "appendix", discard())
		// Heading is at level 1, so appendix entries start at level 2.
		if got[2].Level != 2 || got[3].Level != 3 {
			t.Errorf("levels = %d,%d, want 2,3", got[2].Level, got[3].Level)
		}
	})

	t.Run("no heading appends unnested", func(t *testing.T) {
		got := spliceOutline(master, appendix, 3, 2, "appendix", discard())
		// Marker page 2 has no heading entry; master entries past the
		// insertion shift, appendix entries land at the end.
		if len(got) != 5 {
			t.Fatalf("got %d entries: %+v", len(got), got)
		}
		if got[1].Page != 7 {
			t.Errorf("shifted heading page = %d, want 7", got[1].Page)
		}
		last := got[4]
		if last.Title != "Detail" || last.Page != 4 || last.Level != 1 {
			t.Errorf("appended entry = %+v", last)
		}
	})

	t.Run("empty appendix outline only shifts", func(t *testing.T) {
		got := spliceOutline(master, nil, 6, 4, "appendix", discard())
		if len(got) != len(master) {
			t.Fatalf("got %d entries", len(got))
		}
		if got[2].Page != 10 {
			t.Errorf("Conclusion page = %d, want 10", got[2].Page)
		}
		if got[1].Page != 5 {
			t.Errorf("heading page = %d, want 5 (before insertion point)", got[1].Page)
		}
	})

	t.Run("successive insertions accumulate", func(t *testing.T) {
		// First insertion: 3 pages at page 6. A second placeholder whose
		// marker was originally on page 5 now inserts at page 9.
		toc := spliceOutline(master, nil, 6, 3, "appendix", discard())
		second := []pdf.OutlineEntry{{Title: "Tables", Page: 0, Level: 0}}
		toc = spliceOutline(toc, second, 9, 1, "appendix", discard())
		// Conclusion was page 6, then 9, then 10.
		if toc[2].Page != 10 {
			t.Errorf("Conclusion page = %d, want 10", toc[2].Page)
		}
	})
}

func TestFindHeading(t *testing.T) {
	master := []pdf.OutlineEntry{
		{Title: "Body", Page: 1, Level: 0},
		{Title: "APPENDIX C", Page: 4, Level: 0},
		{Title: "Appendix D", Page: 6, Level: 0},
	}
	if got := findHeading(master, 4, "appendix"); got != 1 {
		t.Errorf("got %d, want 1 (case-insensitive match)", got)
	}
	if got := findHeading(master, 2, "appendix"); got != -1 {
		t.Errorf("got %d, want -1 for page without heading", got)
	}
	if got := findHeading(master, 1, "appendix"); got != -1 {
		t.Errorf("got %d, want -1 when title lacks keyword", got)
	}
}

func TestClampToRun(t *testing.T) {
	entries := []pdf.OutlineEntry{
		{Title: "Before", Page: 1, Level: 0},
		{Title: "In", Page: 3, Level: 0},
		{Title: "Also in", Page: 5, Level: 1},
		{Title: "After", Page: 7, Level: 0},
	}
	got := clampToRun(entries, 2, 5)
	if len(got) != 2 {
		t.Fatalf("got %d entries: %+v", len(got), got)
	}
	if got[0].Page != 1 || got[1].Page != 3 {
		t.Errorf("rebased pages = %d,%d, want 1,3", got[0].Page, got[1].Page)
	}
}
