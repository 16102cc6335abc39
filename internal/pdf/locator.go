package pdf

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	ltpdf "github.com/ledongthuc/pdf"

	"github.com/stitchpdf/stitch/internal/geom"
)

// MarkerMatch describes one located marker token.
type MarkerMatch struct {
	Page int    // 0-based page index
	Text string // the matched token
	Rect geom.Rect
}

// rowTolerance groups glyphs into the same visual row when their
// baselines differ by at most this many points.
const rowTolerance = 2.0

// textRun is a row of glyphs with a shared baseline, in reading order.
type textRun struct {
	text  string
	cells []ltpdf.Text
	// starts[i] is the byte offset of cells[i].S within text.
	starts []int
}

// FindMarker scans the document for the first occurrence of marker in
// page order and returns its position. The rect is in points with a
// top-left origin. Returns ok=false when the marker does not appear.
func (d *Document) FindMarker(marker string) (MarkerMatch, bool, error) {
	matches, err := d.findMarkers(func(s string) []matchSpan {
		if i := strings.Index(s, marker); i >= 0 {
			return []matchSpan{{start: i, end: i + len(marker)}}
		}
		return nil
	}, true)
	if err != nil {
		return MarkerMatch{}, false, err
	}
	if len(matches) == 0 {
		return MarkerMatch{}, false, nil
	}
	return matches[0], true, nil
}

// FindAllMarkers returns every token in the document matching re, in
// page order.
func (d *Document) FindAllMarkers(re *regexp.Regexp) ([]MarkerMatch, error) {
	return d.findMarkers(func(s string) []matchSpan {
		var spans []matchSpan
		for _, loc := range re.FindAllStringIndex(s, -1) {
			spans = append(spans, matchSpan{start: loc[0], end: loc[1]})
		}
		return spans
	}, false)
}

type matchSpan struct {
	start, end int
}

func (d *Document) findMarkers(match func(string) []matchSpan, firstOnly bool) ([]MarkerMatch, error) {
	f, r, err := ltpdf.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for text extraction: %w", d.path, err)
	}
	defer f.Close()

	var out []MarkerMatch
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		pageH, err := d.pageHeight(pageNum - 1)
		if err != nil {
			return nil, err
		}
		for _, run := range assembleRows(p.Content().Text) {
			for _, span := range match(run.text) {
				rect, ok := run.spanRect(span)
				if !ok {
					continue
				}
				out = append(out, MarkerMatch{
					Page: pageNum - 1,
					Text: run.text[span.start:span.end],
					Rect: flipRect(rect, pageH),
				})
				if firstOnly {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// assembleRows groups extracted glyphs into baseline rows and orders
// each row left to right. Marker tokens are emitted by renderers as a
// sequence of single-glyph cells, so substring search has to run over
// the joined row text.
func assembleRows(texts []ltpdf.Text) []textRun {
	byRow := make(map[int][]ltpdf.Text)
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		key := int(t.Y / rowTolerance)
		byRow[key] = append(byRow[key], t)
	}

	keys := make([]int, 0, len(byRow))
	for k := range byRow {
		keys = append(keys, k)
	}
	// Top of the page first: PDF Y grows upward.
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	runs := make([]textRun, 0, len(keys))
	for _, k := range keys {
		cells := byRow[k]
		sort.Slice(cells, func(i, j int) bool { return cells[i].X < cells[j].X })

		var run textRun
		var b strings.Builder
		for _, c := range cells {
			run.starts = append(run.starts, b.Len())
			b.WriteString(c.S)
		}
		run.text = b.String()
		run.cells = cells
		runs = append(runs, run)
	}
	return runs
}

// spanRect returns the bounding box, in PDF-native coordinates, of the
// cells covering the byte span [start,end) of the row text.
func (r textRun) spanRect(span matchSpan) (geom.Rect, bool) {
	var box geom.Rect
	found := false
	for i, c := range r.cells {
		cellEnd := len(r.text)
		if i+1 < len(r.starts) {
			cellEnd = r.starts[i+1]
		}
		if cellEnd <= span.start || r.starts[i] >= span.end {
			continue
		}
		cellBox := geom.Rect{X0: c.X, Y0: c.Y, X1: c.X + c.W, Y1: c.Y + c.FontSize}
		if !found {
			box = cellBox
			found = true
		} else {
			box = box.Union(cellBox)
		}
	}
	return box, found
}

// flipRect converts between the PDF-native bottom-left origin and the
// top-left origin convention used throughout. The conversion is its
// own inverse, so the same function maps in both directions.
func flipRect(r geom.Rect, pageH float64) geom.Rect {
	return geom.Rect{X0: r.X0, Y0: pageH - r.Y1, X1: r.X1, Y1: pageH - r.Y0}
}
