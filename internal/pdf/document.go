package pdf

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/stitchpdf/stitch/internal/geom"
)

// Document wraps an in-memory pdfcpu context for page-level content
// edits. File-level operations (trim, merge, stamp) go through files on
// disk; Flush writes the current state out so both can interleave.
type Document struct {
	path string
	ctx  *model.Context
}

// Open reads the PDF at path into memory.
func Open(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Document{path: path, ctx: ctx}, nil
}

// Path returns the backing file path.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// Flush writes the in-memory state back to the backing file.
func (d *Document) Flush() error {
	if err := api.WriteContextFile(d.ctx, d.path); err != nil {
		return fmt.Errorf("writing %s: %w", d.path, err)
	}
	return nil
}

// SaveAs writes the in-memory state to a new path and rebinds the
// document to it.
func (d *Document) SaveAs(path string) error {
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	d.path = path
	return nil
}

// Reload rereads the backing file, picking up changes made to it by
// file-level operations.
func (d *Document) Reload() error {
	ctx, err := api.ReadContextFile(d.path)
	if err != nil {
		return fmt.Errorf("rereading %s: %w", d.path, err)
	}
	d.ctx = ctx
	return nil
}

// pageDict returns the page dictionary for the 0-based page index.
func (d *Document) pageDict(page int) (types.Dict, *model.InheritedPageAttrs, error) {
	dict, _, attrs, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: %w", page+1, err)
	}
	if dict == nil {
		return nil, nil, fmt.Errorf("page %d: no page dict", page+1)
	}
	return dict, attrs, nil
}

// PageRect returns the media box of the 0-based page in points. The
// rect is reported with the origin at the top-left corner.
func (d *Document) PageRect(page int) (geom.Rect, error) {
	_, attrs, err := d.pageDict(page)
	if err != nil {
		return geom.Rect{}, err
	}
	mb := attrs.MediaBox
	if mb == nil {
		return geom.Rect{}, fmt.Errorf("page %d: no media box", page+1)
	}
	return geom.Rect{X0: 0, Y0: 0, X1: mb.Width(), Y1: mb.Height()}, nil
}

// pageHeight returns the media box height of the 0-based page, needed
// to flip between top-left and PDF-native coordinates.
func (d *Document) pageHeight(page int) (float64, error) {
	r, err := d.PageRect(page)
	if err != nil {
		return 0, err
	}
	return r.Height(), nil
}

// pageContent returns the decoded, concatenated content streams of the
// 0-based page.
func (d *Document) pageContent(page int) ([]byte, error) {
	dict, _, err := d.pageDict(page)
	if err != nil {
		return nil, err
	}
	obj, found := dict.Find("Contents")
	if !found {
		return nil, nil
	}
	obj, err = d.ctx.Dereference(obj)
	if err != nil {
		return nil, fmt.Errorf("page %d contents: %w", page+1, err)
	}

	var buf []byte
	appendStream := func(o types.Object) error {
		sd, _, err := d.ctx.DereferenceStreamDict(o)
		if err != nil {
			return err
		}
		if sd == nil {
			return nil
		}
		if err := sd.Decode(); err != nil {
			return err
		}
		if len(buf) > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, sd.Content...)
		return nil
	}

	switch o := obj.(type) {
	case types.StreamDict:
		if err := appendStream(o); err != nil {
			return nil, fmt.Errorf("page %d contents: %w", page+1, err)
		}
	case types.Array:
		for _, el := range o {
			if err := appendStream(el); err != nil {
				return nil, fmt.Errorf("page %d contents: %w", page+1, err)
			}
		}
	default:
		return nil, fmt.Errorf("page %d: unexpected contents type %T", page+1, obj)
	}
	return buf, nil
}

// setPageContent replaces the content of the 0-based page with a
// single new stream.
func (d *Document) setPageContent(page int, content []byte) error {
	dict, _, err := d.pageDict(page)
	if err != nil {
		return err
	}
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return fmt.Errorf("page %d: new content stream: %w", page+1, err)
	}
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("page %d: encoding content: %w", page+1, err)
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return fmt.Errorf("page %d: registering content: %w", page+1, err)
	}
	dict["Contents"] = *ref
	return nil
}

// pageOps tokenizes the content of the 0-based page.
func (d *Document) pageOps(page int) ([]Op, error) {
	content, err := d.pageContent(page)
	if err != nil {
		return nil, err
	}
	ops, err := parseContent(content)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page+1, err)
	}
	return ops, nil
}

// setPageOps serializes ops back into the page content.
func (d *Document) setPageOps(page int, ops []Op) error {
	return d.setPageContent(page, serializeContent(ops))
}
