// Package merge inserts whole appendix page ranges into a base
// document at marker positions and keeps its outline consistent
// across the accumulating page shifts.
package merge

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/stitchpdf/stitch/internal/home"
	"github.com/stitchpdf/stitch/internal/pageselect"
	"github.com/stitchpdf/stitch/internal/pdf"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

// Skip records a placeholder that could not be inserted. Skips are
// reported, never fatal.
type Skip struct {
	Marker string
	Reason string
}

// Engine applies merge placeholders to a base document.
type Engine struct {
	log        *slog.Logger
	ws         *home.Workspace
	tocKeyword string
}

// New returns a merge engine writing intermediate files into ws.
// tocKeyword drives the outline heading heuristic.
func New(log *slog.Logger, ws *home.Workspace, tocKeyword string) *Engine {
	return &Engine{log: log, ws: ws, tocKeyword: tocKeyword}
}

// placement is a merge placeholder located in the pristine document.
type placement struct {
	merge        placeholder.Merge
	originalPage int
	match        pdf.MarkerMatch
}

// Apply inserts every merge placeholder's pages into doc and rewrites
// its outline. Placeholders whose markers are missing or whose page
// selections are empty are skipped and reported. doc is flushed,
// mutated through files and reloaded; its in-memory state is current
// on return.
func (e *Engine) Apply(doc *pdf.Document, merges []placeholder.Merge, baseDir string) ([]Skip, error) {
	var skips []Skip

	// Locate every marker in the pristine document first. Insertions
	// shift pages, so ordering and offsets key off these positions.
	var placements []placement
	for _, m := range merges {
		match, found, err := doc.FindMarker(m.MarkerText)
		if err != nil {
			return skips, err
		}
		if !found {
			e.log.Warn("merge marker not found in rendered document, skipping placeholder",
				"marker", m.MarkerText)
			skips = append(skips, Skip{Marker: m.MarkerText, Reason: "marker not found"})
			continue
		}
		placements = append(placements, placement{merge: m, originalPage: match.Page, match: match})
	}
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].originalPage < placements[j].originalPage
	})

	more, err := e.applyPlacements(doc, placements, baseDir)
	return append(skips, more...), err
}

// applyPlacements runs the located insertions in ascending page order,
// tracking the page offset earlier insertions add to later ones.
func (e *Engine) applyPlacements(doc *pdf.Document, placements []placement, baseDir string) ([]Skip, error) {
	var skips []Skip

	if err := doc.Flush(); err != nil {
		return skips, err
	}
	masterToc, err := pdf.ReadOutline(doc.Path())
	if err != nil {
		return skips, err
	}

	offset := 0
	for _, pl := range placements {
		log := e.log.With("marker", pl.merge.MarkerText)

		currentPage := pl.originalPage + offset
		if currentPage >= doc.PageCount() {
			log.Warn("marker page out of bounds after prior insertions, skipping placeholder",
				"page", currentPage+1, "pages", doc.PageCount())
			skips = append(skips, Skip{Marker: pl.merge.MarkerText, Reason: "marker page out of bounds"})
			continue
		}

		if _, err := doc.RedactText(currentPage, pl.match.Rect); err != nil {
			return skips, err
		}

		src := placeholder.ResolveSource(pl.merge, baseDir)
		appendix, err := pdf.Open(src)
		if err != nil {
			return skips, err
		}
		sel := pageselect.Resolve(pl.merge.PageSpec, appendix.PageCount(), log)
		if len(sel) == 0 {
			log.Warn("empty page selection, skipping insertion")
			skips = append(skips, Skip{Marker: pl.merge.MarkerText, Reason: "empty page selection"})
			continue
		}
		run := sel.BoundingRun()
		from, to := run[0], run[len(run)-1]
		if !sel.Contiguous() {
			log.Warn("non-contiguous page selection approximated by its bounding run",
				"selection", pl.merge.PageSpec, "run", fmt.Sprintf("%d-%d", from+1, to+1))
		}

		for pg := from; pg <= to; pg++ {
			if err := appendix.BakeAnnotations(pg); err != nil {
				return skips, err
			}
		}
		staged := e.ws.TempPath("merge-src", ".pdf")
		if err := appendix.SaveAs(staged); err != nil {
			return skips, err
		}

		if err := doc.Flush(); err != nil {
			return skips, err
		}
		insertionPoint := currentPage + 1
		count := to - from + 1
		if err := e.insertRange(doc, staged, from, to, insertionPoint); err != nil {
			return skips, err
		}

		appendixToc, err := pdf.ReadOutline(staged)
		if err != nil {
			return skips, err
		}
		// Appendix outline pages are relative to the staged file; make
		// them relative to the inserted run before splicing.
		appendixToc = clampToRun(appendixToc, from, to)
		masterToc = spliceOutline(masterToc, appendixToc, insertionPoint, count, e.tocKeyword, log)

		offset += count
	}

	if err := doc.Flush(); err != nil {
		return skips, err
	}
	if len(masterToc) > 0 {
		if err := pdf.WriteOutline(doc.Path(), masterToc); err != nil {
			return skips, err
		}
	}
	return skips, doc.Reload()
}

// insertRange splits doc at insertionPoint and splices in pages
// [from,to] of the staged appendix file.
func (e *Engine) insertRange(doc *pdf.Document, staged string, from, to, insertionPoint int) error {
	run := e.ws.TempPath("merge-run", ".pdf")
	if err := pdf.ExtractRange(staged, run, from, to); err != nil {
		return err
	}

	head := e.ws.TempPath("merge-head", ".pdf")
	if err := pdf.ExtractRange(doc.Path(), head, 0, insertionPoint-1); err != nil {
		return err
	}
	parts := []string{head, run}
	if insertionPoint < doc.PageCount() {
		tail := e.ws.TempPath("merge-tail", ".pdf")
		if err := pdf.ExtractRange(doc.Path(), tail, insertionPoint, doc.PageCount()-1); err != nil {
			return err
		}
		parts = append(parts, tail)
	}

	merged := e.ws.TempPath("merge-out", ".pdf")
	if err := pdf.Concatenate(parts, merged); err != nil {
		return err
	}
	if err := os.Rename(merged, doc.Path()); err != nil {
		return fmt.Errorf("replacing %s: %w", doc.Path(), err)
	}
	return doc.Reload()
}

// clampToRun drops appendix outline entries outside the inserted run
// and rebases the remainder so page 0 is the first inserted page.
func clampToRun(entries []pdf.OutlineEntry, from, to int) []pdf.OutlineEntry {
	var out []pdf.OutlineEntry
	for _, e := range entries {
		if e.Page < from || e.Page > to {
			continue
		}
		e.Page -= from
		out = append(out, e)
	}
	return out
}
