package docx

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/stitchpdf/stitch/internal/placeholder"
)

var (
	pPrRe  = regexp.MustCompile(`(?s)<w:pPr(?:\s[^>]*)?>.*?</w:pPr>|<w:pPr(?:\s[^>]*)?/>`)
	tcPrRe = regexp.MustCompile(`(?s)<w:tcPr(?:\s[^>]*)?>.*?</w:tcPr>|<w:tcPr(?:\s[^>]*)?/>`)
	trPrRe = regexp.MustCompile(`(?s)<w:trPr(?:\s[^>]*)?>.*?</w:trPr>|<w:trPr(?:\s[^>]*)?/>`)
)

type edit struct {
	start, end int
	repl       []byte
}

// Embed rewrites every placeholder found by Scan into its marker
// token: merge paragraphs become a marker followed by a page break,
// overlay cells get the main marker, and one replicated row per
// continuation marker is appended to the overlay's table. The
// manifest must be the one Scan produced, with continuations already
// assigned.
func (d *Document) Embed(man *placeholder.Manifest) error {
	var edits []edit

	for _, mg := range man.Merges {
		span, ok := d.mergeSpans[mg.Index]
		if !ok {
			return fmt.Errorf("merge %s: no recorded placeholder position, document not scanned", mg.MarkerText)
		}
		para := d.xml[span.paraStart:span.paraEnd]
		repl := markerParagraph(string(pPrRe.Find(para)), mg.MarkerText, true)
		edits = append(edits, edit{start: span.paraStart, end: span.paraEnd, repl: repl})
	}

	for _, ov := range man.Overlays {
		span, ok := d.overlaySpans[ov.Index]
		if !ok {
			return fmt.Errorf("overlay %s: no recorded placeholder position, document not scanned", ov.MarkerText)
		}
		row := d.xml[span.rowStart:span.rowEnd]
		cell := d.xml[span.cellStart:span.cellEnd]
		tcPr := string(tcPrRe.Find(cell))
		trPr := string(trPrRe.Find(row))

		edits = append(edits, edit{
			start: span.cellStart, end: span.cellEnd,
			repl: markerCell(tcPr, ov.MarkerText),
		})
		if len(ov.Continuations) > 0 {
			var rows []byte
			for _, cont := range ov.Continuations {
				rows = append(rows, markerRow(trPr, tcPr, cont.MarkerText)...)
			}
			// Insert the replicated rows just before the table closes.
			at := span.tblEnd - len("</w:tbl>")
			edits = append(edits, edit{start: at, end: at, repl: rows})
		}
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		out := make([]byte, 0, len(d.xml)-(e.end-e.start)+len(e.repl))
		out = append(out, d.xml[:e.start]...)
		out = append(out, e.repl...)
		out = append(out, d.xml[e.end:]...)
		d.xml = out
	}
	return nil
}

func markerParagraph(pPr, marker string, pageBreak bool) []byte {
	s := "<w:p>" + pPr + `<w:r><w:t xml:space="preserve">` + marker + `</w:t></w:r>`
	if pageBreak {
		s += `<w:r><w:br w:type="page"/></w:r>`
	}
	return []byte(s + "</w:p>")
}

func markerCell(tcPr, marker string) []byte {
	var b []byte
	b = append(b, "<w:tc>"...)
	b = append(b, tcPr...)
	b = append(b, markerParagraph("", marker, false)...)
	b = append(b, "</w:tc>"...)
	return b
}

func markerRow(trPr, tcPr, marker string) []byte {
	var b []byte
	b = append(b, "<w:tr>"...)
	b = append(b, trPr...)
	b = append(b, markerCell(tcPr, marker)...)
	b = append(b, "</w:tr>"...)
	return b
}
