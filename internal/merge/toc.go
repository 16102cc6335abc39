package merge

import (
	"log/slog"
	"strings"

	"github.com/stitchpdf/stitch/internal/pdf"
)

// spliceOutline merges an appendix's outline into master for an
// insertion of count pages starting at 0-based page insertionPoint.
//
// Master entries pointing at or past the insertion point shift down by
// count. The appendix entries are rebased onto the output page space
// and, when the master holds a heading for this appendix on the page
// right before the insertion, nested under it; otherwise they are
// appended at the top level with a warning, which degrades nesting but
// keeps every target page correct.
func spliceOutline(master, appendix []pdf.OutlineEntry, insertionPoint, count int, headingKeyword string, log *slog.Logger) []pdf.OutlineEntry {
	out := make([]pdf.OutlineEntry, len(master))
	for i, e := range master {
		if e.Page >= insertionPoint {
			e.Page += count
		}
		out[i] = e
	}

	if len(appendix) == 0 {
		return out
	}

	h := findHeading(master, insertionPoint-1, headingKeyword)
	if h < 0 {
		log.Warn("no matching appendix heading in outline, appending entries unnested",
			"page", insertionPoint, "keyword", headingKeyword)
		rebased := rebase(appendix, insertionPoint, 0)
		return append(out, rebased...)
	}

	// One level below the heading, so its top entries become children
	// of the heading rather than siblings.
	rebased := rebase(appendix, insertionPoint, master[h].Level+1)
	spliced := make([]pdf.OutlineEntry, 0, len(out)+len(rebased))
	spliced = append(spliced, out[:h+1]...)
	spliced = append(spliced, rebased...)
	spliced = append(spliced, out[h+1:]...)
	return spliced
}

// findHeading returns the index of the outline entry that titles this
// appendix: it targets the marker's page and its title contains the
// configured keyword, case-insensitively. Returns -1 when absent.
func findHeading(master []pdf.OutlineEntry, markerPage int, keyword string) int {
	kw := strings.ToLower(keyword)
	for i, e := range master {
		if e.Page == markerPage && strings.Contains(strings.ToLower(e.Title), kw) {
			return i
		}
	}
	return -1
}

// rebase shifts appendix outline entries into the output document's
// page space and nesting depth.
func rebase(entries []pdf.OutlineEntry, pageShift, levelShift int) []pdf.OutlineEntry {
	out := make([]pdf.OutlineEntry, len(entries))
	for i, e := range entries {
		e.Page += pageShift
		e.Level += levelShift
		out[i] = e
	}
	return out
}
