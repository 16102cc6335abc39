package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// annotHidden is the bit in an annotation's /F flags marking it as not
// to be rendered.
const annotHidden = 2

// BakeAnnotations flattens the normal appearance streams of the
// 0-based page's annotations into its content and removes the
// annotations. File-level page extraction drops /Annots entries, so
// anything a renderer emitted as an annotation (field borders, stamps)
// has to be baked in before a page is transplanted elsewhere.
func (d *Document) BakeAnnotations(page int) error {
	dict, _, err := d.pageDict(page)
	if err != nil {
		return err
	}
	obj, found := dict.Find("Annots")
	if !found {
		return nil
	}
	annots, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return fmt.Errorf("page %d annots: %w", page+1, err)
	}

	var draws []byte
	for i, a := range annots {
		annot, err := d.ctx.DereferenceDict(a)
		if err != nil || annot == nil {
			continue
		}
		if f := annot.IntEntry("F"); f != nil && *f&annotHidden != 0 {
			continue
		}
		formRef, ok := d.appearanceRef(annot)
		if !ok {
			continue
		}
		cm, err := d.appearanceMatrix(annot, formRef)
		if err != nil {
			continue
		}
		name, err := d.registerXObject(dict, fmt.Sprintf("BkAn%d", i), formRef)
		if err != nil {
			return fmt.Errorf("page %d annot %d: %w", page+1, i, err)
		}
		draws = append(draws, []byte(fmt.Sprintf("q %.4f %.4f %.4f %.4f %.4f %.4f cm /%s Do Q\n",
			cm[0], cm[1], cm[2], cm[3], cm[4], cm[5], name))...)
	}

	if len(draws) > 0 {
		content, err := d.pageContent(page)
		if err != nil {
			return err
		}
		merged := make([]byte, 0, len(content)+len(draws)+6)
		merged = append(merged, "q\n"...)
		merged = append(merged, content...)
		merged = append(merged, "\nQ\n"...)
		merged = append(merged, draws...)
		if err := d.setPageContent(page, merged); err != nil {
			return err
		}
	}

	dict.Delete("Annots")
	return nil
}

// appearanceRef resolves the indirect reference to the annotation's
// normal appearance form XObject, following the /AS state name when
// the appearance is a state subdictionary.
func (d *Document) appearanceRef(annot types.Dict) (types.IndirectRef, bool) {
	ap, err := d.ctx.DereferenceDict(annot["AP"])
	if err != nil || ap == nil {
		return types.IndirectRef{}, false
	}
	n, found := ap.Find("N")
	if !found {
		return types.IndirectRef{}, false
	}
	ref, isRef := n.(types.IndirectRef)
	if !isRef {
		return types.IndirectRef{}, false
	}
	target, err := d.ctx.Dereference(ref)
	if err != nil {
		return types.IndirectRef{}, false
	}
	switch t := target.(type) {
	case types.StreamDict:
		return ref, true
	case types.Dict:
		// Appearance states keyed by /AS.
		as := annot.NameEntry("AS")
		if as == nil {
			return types.IndirectRef{}, false
		}
		stateRef, isRef := t[*as].(types.IndirectRef)
		if !isRef {
			return types.IndirectRef{}, false
		}
		return stateRef, true
	}
	return types.IndirectRef{}, false
}

// appearanceMatrix computes the content stream matrix mapping the form
// XObject's transformed bounding box onto the annotation rectangle.
// The form's own /Matrix is applied by the Do operator, so only the
// fit from the transformed box to /Rect is emitted here.
func (d *Document) appearanceMatrix(annot types.Dict, formRef types.IndirectRef) ([6]float64, error) {
	var cm [6]float64

	rect, err := d.floatArray(annot["Rect"], 4)
	if err != nil {
		return cm, err
	}
	rx0, ry0 := min(rect[0], rect[2]), min(rect[1], rect[3])
	rx1, ry1 := max(rect[0], rect[2]), max(rect[1], rect[3])

	sd, _, err := d.ctx.DereferenceStreamDict(formRef)
	if err != nil || sd == nil {
		return cm, fmt.Errorf("appearance stream: %w", err)
	}
	bbox, err := d.floatArray(sd.Dict["BBox"], 4)
	if err != nil {
		return cm, err
	}
	m := [6]float64{1, 0, 0, 1, 0, 0}
	if _, found := sd.Dict.Find("Matrix"); found {
		m2, err := d.floatArray(sd.Dict["Matrix"], 6)
		if err == nil {
			copy(m[:], m2)
		}
	}

	// Transform the four BBox corners and take their bounding box.
	xs := []float64{bbox[0], bbox[2]}
	ys := []float64{bbox[1], bbox[3]}
	bx0, by0 := 1e18, 1e18
	bx1, by1 := -1e18, -1e18
	for _, x := range xs {
		for _, y := range ys {
			tx := m[0]*x + m[2]*y + m[4]
			ty := m[1]*x + m[3]*y + m[5]
			bx0, by0 = min(bx0, tx), min(by0, ty)
			bx1, by1 = max(bx1, tx), max(by1, ty)
		}
	}

	sx, sy := 1.0, 1.0
	if bx1 > bx0 {
		sx = (rx1 - rx0) / (bx1 - bx0)
	}
	if by1 > by0 {
		sy = (ry1 - ry0) / (by1 - by0)
	}
	cm = [6]float64{sx, 0, 0, sy, rx0 - bx0*sx, ry0 - by0*sy}
	return cm, nil
}

// registerXObject adds ref under a fresh name derived from base to the
// page's /Resources /XObject dictionary and returns the name used.
func (d *Document) registerXObject(pageDict types.Dict, base string, ref types.IndirectRef) (string, error) {
	res, err := d.ctx.DereferenceDict(pageDict["Resources"])
	if err != nil {
		return "", err
	}
	if res == nil {
		res = types.Dict{}
		pageDict["Resources"] = res
	}
	xobjs, err := d.ctx.DereferenceDict(res["XObject"])
	if err != nil {
		return "", err
	}
	if xobjs == nil {
		xobjs = types.Dict{}
		res["XObject"] = xobjs
	}
	name := base
	for n := 0; ; n++ {
		if _, taken := xobjs.Find(name); !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
	xobjs[name] = ref
	return name, nil
}

// floatArray dereferences obj as an array of want numbers.
func (d *Document) floatArray(obj types.Object, want int) ([]float64, error) {
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil, err
	}
	if len(arr) < want {
		return nil, fmt.Errorf("array has %d entries, want %d", len(arr), want)
	}
	out := make([]float64, want)
	for i := 0; i < want; i++ {
		el, err := d.ctx.Dereference(arr[i])
		if err != nil {
			return nil, err
		}
		switch v := el.(type) {
		case types.Integer:
			out[i] = float64(v.Value())
		case types.Float:
			out[i] = v.Value()
		default:
			return nil, fmt.Errorf("array entry %d is %T, not a number", i, el)
		}
	}
	return out, nil
}
