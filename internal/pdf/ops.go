package pdf

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/stitchpdf/stitch/internal/geom"
)

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCountFile returns the page count of the PDF at path without
// keeping it open.
func PageCountFile(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}

// ExtractRange writes pages [from,to] (0-based, inclusive) of in to
// out.
func ExtractRange(in, out string, from, to int) error {
	sel := []string{fmt.Sprintf("%d-%d", from+1, to+1)}
	if err := api.TrimFile(in, out, sel, newConfiguration()); err != nil {
		return fmt.Errorf("extracting pages %d-%d from %s: %w", from+1, to+1, in, err)
	}
	return nil
}

// ExtractPages writes the given 0-based pages of in to out, in the
// order given.
func ExtractPages(in, out string, pages []int) error {
	sel := make([]string, len(pages))
	for i, p := range pages {
		sel[i] = fmt.Sprintf("%d", p+1)
	}
	if err := api.TrimFile(in, out, sel, newConfiguration()); err != nil {
		return fmt.Errorf("extracting %d pages from %s: %w", len(pages), in, err)
	}
	return nil
}

// Concatenate merges the given files, in order, into out. Files that
// do not exist are an error; an empty list is too.
func Concatenate(files []string, out string) error {
	if len(files) == 0 {
		return errors.New("concatenate: no input files")
	}
	if err := api.MergeCreateFile(files, out, false, newConfiguration()); err != nil {
		return fmt.Errorf("merging %d files into %s: %w", len(files), out, err)
	}
	return nil
}

// CropPage sets the crop box of the 0-based page of the file at path
// to rect (top-left origin, points). pageH is the media box height of
// that page.
func CropPage(path string, page int, rect geom.Rect, pageH float64) error {
	native := flipRect(rect, pageH)
	boxSpec := fmt.Sprintf("[%.2f %.2f %.2f %.2f]", native.X0, native.Y0, native.X1, native.Y1)
	box, err := model.ParseBox(boxSpec, types.POINTS)
	if err != nil {
		return fmt.Errorf("crop box %s: %w", boxSpec, err)
	}
	sel := []string{fmt.Sprintf("%d", page+1)}
	if err := api.CropFile(path, "", sel, box, newConfiguration()); err != nil {
		return fmt.Errorf("cropping page %d of %s: %w", page+1, path, err)
	}
	return nil
}

// StampPage draws the first page of stampPath onto the 0-based page of
// path at the given uniform scale, offset dx/dy points from the
// bottom-left corner.
func StampPage(path string, page int, stampPath string, scale, dx, dy float64) error {
	desc := fmt.Sprintf("sc:%.6f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParsePDFWatermarkDetails(stampPath+":1", desc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("stamp details for %s: %w", stampPath, err)
	}
	wm.Dx = dx
	wm.Dy = dy
	sel := []string{fmt.Sprintf("%d", page+1)}
	if err := api.AddWatermarksFile(path, "", sel, wm, newConfiguration()); err != nil {
		return fmt.Errorf("stamping page %d of %s: %w", page+1, path, err)
	}
	return nil
}

// OutlineEntry is one flattened bookmark: a title, the 0-based page it
// points to and its nesting level, 0 for top-level entries.
type OutlineEntry struct {
	Title string
	Page  int
	Level int
}

// ReadOutline returns the document outline of the PDF at path as a
// depth-first flattened list. A document without an outline yields an
// empty list.
func ReadOutline(path string) ([]OutlineEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	bms, err := api.Bookmarks(f, newConfiguration())
	if err != nil {
		// pdfcpu errors out on documents without an outline tree.
		return nil, nil
	}
	var out []OutlineEntry
	flattenBookmarks(bms, 0, &out)
	return out, nil
}

func flattenBookmarks(bms []pdfcpu.Bookmark, level int, out *[]OutlineEntry) {
	for _, bm := range bms {
		*out = append(*out, OutlineEntry{Title: bm.Title, Page: bm.PageFrom - 1, Level: level})
		flattenBookmarks(bm.Kids, level+1, out)
	}
}

// WriteOutline replaces the outline of the PDF at path with the given
// flattened entries, rebuilding nesting from the levels.
func WriteOutline(path string, entries []OutlineEntry) error {
	bms, _ := nestBookmarks(entries, 0, 0)
	if err := api.AddBookmarksFile(path, "", bms, true, newConfiguration()); err != nil {
		return fmt.Errorf("writing outline of %s: %w", path, err)
	}
	return nil
}

// nestBookmarks consumes entries from index i whose level is at least
// level, attaching deeper entries as children of the preceding one.
func nestBookmarks(entries []OutlineEntry, i, level int) ([]pdfcpu.Bookmark, int) {
	var bms []pdfcpu.Bookmark
	for i < len(entries) {
		e := entries[i]
		if e.Level < level {
			break
		}
		if e.Level > level {
			// Orphaned deep entry; adopt it at the current level.
			e.Level = level
		}
		bm := pdfcpu.Bookmark{Title: e.Title, PageFrom: e.Page + 1}
		i++
		if i < len(entries) && entries[i].Level > level {
			bm.Kids, i = nestBookmarks(entries, i, level+1)
		}
		bms = append(bms, bm)
	}
	return bms, i
}
