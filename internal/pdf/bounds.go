package pdf

import (
	"fmt"

	ltpdf "github.com/ledongthuc/pdf"

	"github.com/stitchpdf/stitch/internal/geom"
)

// ContentBBox computes the bounding box of everything visible on the
// 0-based page, in points with a top-left origin. Text extents come
// from the extraction layer, which carries real glyph metrics; vector
// and image extents come from interpreting the content stream. Returns
// ok=false for a blank page.
func (d *Document) ContentBBox(page int) (geom.Rect, bool, error) {
	pageH, err := d.pageHeight(page)
	if err != nil {
		return geom.Rect{}, false, err
	}
	pageRect, err := d.PageRect(page)
	if err != nil {
		return geom.Rect{}, false, err
	}

	var box geom.Rect
	found := false
	add := func(r geom.Rect) {
		r = r.Intersect(pageRect)
		if r.Empty() {
			return
		}
		if !found {
			box = r
			found = true
			return
		}
		box = box.Union(r)
	}

	f, r, err := ltpdf.Open(d.path)
	if err != nil {
		return geom.Rect{}, false, fmt.Errorf("opening %s for text extraction: %w", d.path, err)
	}
	defer f.Close()

	if page+1 <= r.NumPage() {
		p := r.Page(page + 1)
		if !p.V.IsNull() {
			for _, t := range p.Content().Text {
				if t.S == "" {
					continue
				}
				native := geom.Rect{X0: t.X, Y0: t.Y, X1: t.X + t.W, Y1: t.Y + t.FontSize}
				add(flipRect(native, pageH))
			}
		}
	}

	ops, err := d.pageOps(page)
	if err != nil {
		return geom.Rect{}, false, err
	}
	for _, ev := range interpret(ops) {
		if ev.kind == drawText {
			// Covered with real metrics above.
			continue
		}
		add(flipRect(ev.rect, pageH))
	}

	return box, found, nil
}

// ApplyPadding grows box by pad points on all sides, clipped to the
// page rectangle. Padding keeps thin border strokes at the true
// content edge from being shaved off by the crop.
func ApplyPadding(box, page geom.Rect, pad float64) geom.Rect {
	return box.Expand(pad, page)
}
