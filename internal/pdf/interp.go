package pdf

import (
	"github.com/stitchpdf/stitch/internal/geom"
)

// Content stream interpretation. The interpreter walks tokenized
// operations tracking the graphics state far enough to place every
// painted path, shown text run and drawn image in device space. Glyph
// metrics are not loaded; text extents are estimated from the font size,
// which is sufficient for locating marker tokens and content bounds.

// drawKind classifies an interpreted drawing event.
type drawKind int

const (
	drawPath drawKind = iota
	drawText
	drawImage
)

// drawEvent records one painted element in device coordinates
// (PDF-native, bottom-left origin).
type drawEvent struct {
	kind drawKind
	op   int // index into the op slice
	rect geom.Rect
}

type graphicsState struct {
	ctm geom.Matrix
}

type textState struct {
	tm       geom.Matrix // text matrix
	tlm      geom.Matrix // text line matrix
	leading  float64
	fontSize float64
}

// approxGlyphWidth is the assumed average glyph advance as a fraction of
// the font size. Marker tokens are ASCII, where this is a close bound.
const approxGlyphWidth = 0.55

// interpret walks ops and returns the drawing events of the page.
func interpret(ops []Op) []drawEvent {
	var events []drawEvent

	gs := graphicsState{ctm: geom.Identity()}
	var stack []graphicsState
	var ts textState

	// Current path accumulation in user space.
	var pathBox geom.Rect
	var pathOps []int
	var cur geom.Point
	var subpathStart geom.Point

	addPoint := func(p geom.Point) {
		r := geom.Rect{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y}
		if pathBox.Empty() && pathBox == (geom.Rect{}) {
			pathBox = r
		} else {
			pathBox = pathBox.Union(r)
		}
	}

	resetPath := func() {
		pathBox = geom.Rect{}
		pathOps = nil
	}

	num := func(op Op, i int) float64 {
		if i < len(op.Operands) && op.Operands[i].IsNum {
			return op.Operands[i].Num
		}
		return 0
	}

	showText := func(opIdx int, op Op) {
		var runes int
		for _, od := range op.Operands {
			if od.IsStr {
				runes += len(od.Str)
			}
			if od.IsArr {
				for _, el := range od.Arr {
					if el.IsStr {
						runes += len(el.Str)
					}
				}
			}
		}
		w := float64(runes) * ts.fontSize * approxGlyphWidth
		h := ts.fontSize
		textBox := geom.Rect{X0: 0, Y0: -0.25 * h, X1: w, Y1: h}
		dev := ts.tm.Mul(gs.ctm).TransformRect(textBox)
		events = append(events, drawEvent{kind: drawText, op: opIdx, rect: dev})
		// Advance the text matrix by the estimated width.
		ts.tm = (geom.Matrix{A: 1, D: 1, E: w}).Mul(ts.tm)
	}

	nextLine := func() {
		ts.tlm = (geom.Matrix{A: 1, D: 1, F: -ts.leading}).Mul(ts.tlm)
		ts.tm = ts.tlm
	}

	for i, op := range ops {
		switch op.Operator {
		case "q":
			stack = append(stack, gs)
		case "Q":
			if n := len(stack); n > 0 {
				gs = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			m := geom.Matrix{
				A: num(op, 0), B: num(op, 1),
				C: num(op, 2), D: num(op, 3),
				E: num(op, 4), F: num(op, 5),
			}
			gs.ctm = m.Mul(gs.ctm)

		case "m":
			cur = geom.Point{X: num(op, 0), Y: num(op, 1)}
			subpathStart = cur
			addPoint(cur)
			pathOps = append(pathOps, i)
		case "l":
			cur = geom.Point{X: num(op, 0), Y: num(op, 1)}
			addPoint(cur)
			pathOps = append(pathOps, i)
		case "c":
			// Control points bound the curve.
			addPoint(geom.Point{X: num(op, 0), Y: num(op, 1)})
			addPoint(geom.Point{X: num(op, 2), Y: num(op, 3)})
			cur = geom.Point{X: num(op, 4), Y: num(op, 5)}
			addPoint(cur)
			pathOps = append(pathOps, i)
		case "v", "y":
			addPoint(geom.Point{X: num(op, 0), Y: num(op, 1)})
			cur = geom.Point{X: num(op, 2), Y: num(op, 3)}
			addPoint(cur)
			pathOps = append(pathOps, i)
		case "h":
			cur = subpathStart
			pathOps = append(pathOps, i)
		case "re":
			x, y := num(op, 0), num(op, 1)
			w, h := num(op, 2), num(op, 3)
			addPoint(geom.Point{X: x, Y: y})
			addPoint(geom.Point{X: x + w, Y: y + h})
			cur = geom.Point{X: x, Y: y}
			subpathStart = cur
			pathOps = append(pathOps, i)

		case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
			if len(pathOps) > 0 {
				dev := gs.ctm.TransformRect(pathBox)
				ev := drawEvent{kind: drawPath, op: i, rect: dev}
				events = append(events, ev)
				for _, po := range pathOps {
					events = append(events, drawEvent{kind: drawPath, op: po, rect: dev})
				}
			}
			resetPath()
		case "n":
			resetPath()

		case "BT":
			ts = textState{tm: geom.Identity(), tlm: geom.Identity(), fontSize: ts.fontSize}
		case "ET":
			// Text object ends; matrices reset at the next BT.
		case "Tf":
			if len(op.Operands) >= 2 && op.Operands[1].IsNum {
				ts.fontSize = op.Operands[1].Num
			}
		case "TL":
			ts.leading = num(op, 0)
		case "Td":
			ts.tlm = (geom.Matrix{A: 1, D: 1, E: num(op, 0), F: num(op, 1)}).Mul(ts.tlm)
			ts.tm = ts.tlm
		case "TD":
			ts.leading = -num(op, 1)
			ts.tlm = (geom.Matrix{A: 1, D: 1, E: num(op, 0), F: num(op, 1)}).Mul(ts.tlm)
			ts.tm = ts.tlm
		case "Tm":
			ts.tlm = geom.Matrix{
				A: num(op, 0), B: num(op, 1),
				C: num(op, 2), D: num(op, 3),
				E: num(op, 4), F: num(op, 5),
			}
			ts.tm = ts.tlm
		case "T*":
			nextLine()
		case "Tj", "TJ":
			showText(i, op)
		case "'":
			nextLine()
			showText(i, op)
		case "\"":
			nextLine()
			showText(i, op)

		case "Do":
			// External object drawn into the CTM unit square. Forms are
			// bounded by this too, coarsely; images exactly.
			dev := gs.ctm.TransformRect(geom.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1})
			events = append(events, drawEvent{kind: drawImage, op: i, rect: dev})
		case "BI":
			dev := gs.ctm.TransformRect(geom.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1})
			events = append(events, drawEvent{kind: drawImage, op: i, rect: dev})
		}
	}
	return events
}
