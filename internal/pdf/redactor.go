package pdf

import (
	"github.com/stitchpdf/stitch/internal/geom"
)

// redactSlack loosens containment checks by this many points so that
// hairline strokes on a region border still count as inside it.
const redactSlack = 1.0

// RedactRect removes page content inside rect (top-left origin,
// points) from the 0-based page. Text runs anchored inside the rect
// are dropped; vector paths and images are dropped when their whole
// extent lies within it. Returns true when anything was removed, so a
// second call on the same region reports false.
func (d *Document) RedactRect(page int, rect geom.Rect) (bool, error) {
	return d.redact(page, rect, false)
}

// RedactText removes only text runs anchored inside rect, leaving
// vector content such as table borders in place.
func (d *Document) RedactText(page int, rect geom.Rect) (bool, error) {
	return d.redact(page, rect, true)
}

func (d *Document) redact(page int, rect geom.Rect, textOnly bool) (bool, error) {
	pageH, err := d.pageHeight(page)
	if err != nil {
		return false, err
	}
	native := flipRect(rect, pageH)
	loose := geom.Rect{
		X0: native.X0 - redactSlack, Y0: native.Y0 - redactSlack,
		X1: native.X1 + redactSlack, Y1: native.Y1 + redactSlack,
	}

	ops, err := d.pageOps(page)
	if err != nil {
		return false, err
	}

	drop := make(map[int]bool)
	for _, ev := range interpret(ops) {
		switch ev.kind {
		case drawText:
			center := geom.Point{
				X: (ev.rect.X0 + ev.rect.X1) / 2,
				Y: (ev.rect.Y0 + ev.rect.Y1) / 2,
			}
			if loose.Contains(center) {
				drop[ev.op] = true
			}
		case drawPath, drawImage:
			if !textOnly && loose.ContainsRect(ev.rect) {
				drop[ev.op] = true
			}
		}
	}
	if len(drop) == 0 {
		return false, nil
	}

	kept := make([]Op, 0, len(ops)-len(drop))
	for i, op := range ops {
		if drop[i] {
			continue
		}
		kept = append(kept, op)
	}
	if err := d.setPageOps(page, kept); err != nil {
		return false, err
	}
	return true, nil
}
