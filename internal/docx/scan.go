package docx

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/stitchpdf/stitch/internal/placeholder"
)

// Placeholder grammar inside the source document:
//
//	[[INSERT: appendices/pump-curves.pdf]]
//	[[INSERT: calcs.pdf | pages=2-5]]
//	[[INSERT: drawing.pdf | pages=1, crop=false]]
//
// A placeholder inside a single-cell table reserves that table's
// rectangle for an overlay; a placeholder in a plain paragraph asks
// for a whole-page merge at that point.
var (
	insertRe = regexp.MustCompile(`\[\[INSERT:\s*([^|\]]+?)\s*(?:\|\s*([^\]]*?)\s*)?\]\]`)

	textRe      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	tblWidthRe  = regexp.MustCompile(`<w:tblW\s[^>]*w:w="(\d+)"[^>]*w:type="dxa"`)
	trHeightRe  = regexp.MustCompile(`<w:trHeight\s[^>]*w:val="(\d+)"`)
	tblWidthRe2 = regexp.MustCompile(`<w:tblW\s[^>]*w:type="dxa"[^>]*w:w="(\d+)"`)
)

// twipsPerPoint converts OOXML dxa units (twentieths of a point).
const twipsPerPoint = 20.0

// overlaySpan records where an overlay placeholder's table sits in the
// document XML, for the later marker rewrite.
type overlaySpan struct {
	tblStart, tblEnd   int
	rowStart, rowEnd   int
	cellStart, cellEnd int
}

// mergeSpan records an insert placeholder's paragraph.
type mergeSpan struct {
	paraStart, paraEnd int
}

// Scan finds every placeholder in the document and returns them as a
// manifest: single-cell tables become overlays with the table's
// reserved geometry, plain paragraphs become merges. Scan also records
// the placeholder positions so Embed can rewrite them later.
func (d *Document) Scan(log *slog.Logger) (*placeholder.Manifest, error) {
	m := &placeholder.Manifest{}
	pos := 0
	for pos < len(d.xml) {
		tblStart, tblEnd := findBlock(d.xml, pos, "w:tbl")
		paraStart, paraEnd := findBlock(d.xml, pos, "w:p")

		if tblStart < 0 && paraStart < 0 {
			break
		}
		if tblStart >= 0 && (paraStart < 0 || tblStart < paraStart) {
			d.scanTable(m, tblStart, tblEnd, log)
			pos = tblEnd
			continue
		}
		if tblStart >= 0 && paraStart < tblStart && paraEnd > tblStart {
			// Paragraph span swallowed a following table's paragraphs;
			// reclamp to just before the table.
			paraEnd = tblStart
		}
		d.scanParagraph(m, paraStart, paraEnd, log)
		pos = paraEnd
	}
	return m, m.Validate()
}

func (d *Document) scanTable(m *placeholder.Manifest, start, end int, log *slog.Logger) {
	tbl := d.xml[start:end]
	text := extractText(tbl)
	match := insertRe.FindStringSubmatch(text)
	if match == nil {
		return
	}

	rows := countBlocks(tbl, "w:tr")
	rowS, rowE := findBlock(tbl, 0, "w:tr")
	if rowS < 0 {
		return
	}
	cells := countBlocks(tbl[rowS:rowE], "w:tc")
	if rows != 1 || cells != 1 {
		log.Warn("placeholder in multi-cell table ignored, overlays need a single-cell table",
			"rows", rows, "cols", cells, "path", match[1])
		return
	}
	cellS, cellE := findBlock(tbl[rowS:rowE], 0, "w:tc")

	idx := len(m.Overlays) + 1
	pageSpec, crop := parseParams(match[2])
	ov := placeholder.Overlay{
		Index:          idx,
		MarkerText:     placeholder.OverlayMarker(idx),
		SourcePath:     match[1],
		PageSpec:       pageSpec,
		CropEnabled:    crop,
		TableWidthPts:  tableWidthPts(tbl),
		TableHeightPts: rowHeightPts(tbl[rowS:rowE]),
	}
	m.Overlays = append(m.Overlays, ov)
	d.overlaySpans[idx] = overlaySpan{
		tblStart: start, tblEnd: end,
		rowStart: start + rowS, rowEnd: start + rowE,
		cellStart: start + rowS + cellS, cellEnd: start + rowS + cellE,
	}
	log.Info("found overlay placeholder",
		"marker", ov.MarkerText, "path", ov.SourcePath,
		"width_pts", ov.TableWidthPts, "height_pts", ov.TableHeightPts)
}

func (d *Document) scanParagraph(m *placeholder.Manifest, start, end int, log *slog.Logger) {
	text := extractText(d.xml[start:end])
	match := insertRe.FindStringSubmatch(text)
	if match == nil {
		return
	}
	idx := len(m.Merges) + 1
	pageSpec, _ := parseParams(match[2])
	mg := placeholder.Merge{
		Index:      idx,
		MarkerText: placeholder.MergeMarker(idx),
		SourcePath: match[1],
		PageSpec:   pageSpec,
	}
	m.Merges = append(m.Merges, mg)
	d.mergeSpans[idx] = mergeSpan{paraStart: start, paraEnd: end}
	log.Info("found merge placeholder", "marker", mg.MarkerText, "path", mg.SourcePath)
}

// parseParams splits the parameter clause after the path. Recognized
// keys are pages (or page) and crop; a bare token is a page spec.
func parseParams(s string) (pageSpec string, crop bool) {
	crop = true
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, val, hasKey := strings.Cut(p, "=")
		if !hasKey {
			if pageSpec == "" {
				pageSpec = p
			}
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "pages", "page":
			pageSpec = val
		case "crop":
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on", "enabled":
				crop = true
			default:
				crop = false
			}
		}
	}
	return pageSpec, crop
}

func tableWidthPts(tbl []byte) float64 {
	m := tblWidthRe.FindSubmatch(tbl)
	if m == nil {
		m = tblWidthRe2.FindSubmatch(tbl)
	}
	if m == nil {
		return 0
	}
	twips, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return float64(twips) / twipsPerPoint
}

func rowHeightPts(row []byte) float64 {
	m := trHeightRe.FindSubmatch(row)
	if m == nil {
		return 0
	}
	twips, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return float64(twips) / twipsPerPoint
}

// extractText joins the character data of every <w:t> run in the
// fragment, which reassembles placeholders the editor split across
// runs.
func extractText(fragment []byte) string {
	var b strings.Builder
	for _, m := range textRe.FindAllSubmatch(fragment, -1) {
		b.Write(m[1])
	}
	return xmlUnescape(b.String())
}

func xmlUnescape(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return r.Replace(s)
}

// findBlock returns the byte span of the next <tag> element at or
// after pos, handling nested elements of the same tag. Returns
// (-1, -1) when absent.
func findBlock(xml []byte, pos int, tag string) (int, int) {
	open := []byte("<" + tag)
	close := []byte("</" + tag + ">")

	start := findOpen(xml, pos, open)
	if start < 0 {
		return -1, -1
	}
	if selfClosing(xml, start) {
		end := bytes.IndexByte(xml[start:], '>')
		return start, start + end + 1
	}
	depth := 0
	i := start
	for i < len(xml) {
		next := findOpen(xml, i, open)
		closeIdx := bytes.Index(xml[i:], close)
		if closeIdx < 0 {
			return -1, -1
		}
		closeIdx += i
		if next >= 0 && next < closeIdx {
			// Self-closing opens do not nest.
			if selfClosing(xml, next) {
				i = next + len(open)
				continue
			}
			depth++
			i = next + len(open)
			continue
		}
		depth--
		i = closeIdx + len(close)
		if depth == 0 {
			return start, i
		}
	}
	return -1, -1
}

// findOpen finds `<tag` followed by a delimiter, so "w:p" does not
// match "<w:pPr".
func findOpen(xml []byte, pos int, open []byte) int {
	for {
		i := bytes.Index(xml[pos:], open)
		if i < 0 {
			return -1
		}
		i += pos
		after := i + len(open)
		if after >= len(xml) || xml[after] == '>' || xml[after] == ' ' || xml[after] == '/' {
			return i
		}
		pos = after
	}
}

// selfClosing reports whether the element opening at pos ends in "/>".
func selfClosing(xml []byte, pos int) bool {
	end := bytes.IndexByte(xml[pos:], '>')
	if end < 0 {
		return false
	}
	return xml[pos+end-1] == '/'
}

// countBlocks counts top-level <tag> elements in the fragment.
func countBlocks(fragment []byte, tag string) int {
	n := 0
	pos := 0
	for {
		s, e := findBlock(fragment, pos, tag)
		if s < 0 {
			break
		}
		n++
		pos = e
	}
	return n
}
