// Package overlay fits appendix page content into the table rectangles
// reserved for it in a rendered base document.
package overlay

import (
	"fmt"
	"log/slog"

	"github.com/stitchpdf/stitch/internal/config"
	"github.com/stitchpdf/stitch/internal/geom"
	"github.com/stitchpdf/stitch/internal/home"
	"github.com/stitchpdf/stitch/internal/pageselect"
	"github.com/stitchpdf/stitch/internal/pdf"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

// Skip records a placeholder or continuation page that could not be
// placed. Skips are reported, never fatal.
type Skip struct {
	Marker string
	Reason string
}

// Engine applies overlay placeholders to a base document.
type Engine struct {
	log  *slog.Logger
	ws   *home.Workspace
	crop config.CropConfig
}

// New returns an overlay engine writing intermediate files into ws.
func New(log *slog.Logger, ws *home.Workspace, crop config.CropConfig) *Engine {
	return &Engine{log: log, ws: ws, crop: crop}
}

// target is one rectangle a selected appendix page lands in. A
// basePage of -1 marks a continuation whose marker was missing.
type target struct {
	basePage int // 0-based page of the base document
	rect     geom.Rect
}

// Apply processes every overlay in order against doc. Markers that
// cannot be found are skipped and reported; only I/O failures abort.
// doc is flushed and reloaded around the content transplants, so the
// in-memory state is current on return.
func (e *Engine) Apply(doc *pdf.Document, overlays []placeholder.Overlay, baseDir string) ([]Skip, error) {
	var skips []Skip
	for _, ov := range overlays {
		s, err := e.applyOne(doc, ov, baseDir)
		if err != nil {
			return skips, fmt.Errorf("overlay %s: %w", ov.MarkerText, err)
		}
		skips = append(skips, s...)
	}
	return skips, nil
}

func (e *Engine) applyOne(doc *pdf.Document, ov placeholder.Overlay, baseDir string) ([]Skip, error) {
	log := e.log.With("marker", ov.MarkerText)

	match, found, err := doc.FindMarker(ov.MarkerText)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("overlay marker not found in rendered document, skipping placeholder")
		return []Skip{{Marker: ov.MarkerText, Reason: "marker not found"}}, nil
	}

	targets := []target{{basePage: match.Page, rect: tableRect(match.Rect, ov)}}
	var skips []Skip

	if _, err := doc.RedactText(match.Page, match.Rect); err != nil {
		return nil, err
	}
	for _, cont := range ov.Continuations {
		cm, ok, err := doc.FindMarker(cont.MarkerText)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Warn("continuation marker not found, dropping that page",
				"continuation", cont.MarkerText)
			skips = append(skips, Skip{Marker: cont.MarkerText, Reason: "continuation marker not found"})
			targets = append(targets, target{basePage: -1})
			continue
		}
		if _, err := doc.RedactText(cm.Page, cm.Rect); err != nil {
			return nil, err
		}
		targets = append(targets, target{basePage: cm.Page, rect: tableRect(cm.Rect, ov)})
	}

	src := placeholder.ResolveSource(ov, baseDir)
	appendix, err := pdf.Open(src)
	if err != nil {
		return nil, err
	}
	sel := pageselect.Resolve(ov.PageSpec, appendix.PageCount(), log)
	if len(sel) > len(targets) {
		log.Warn("appendix has more selected pages than reserved rectangles, extra pages dropped",
			"selected", len(sel), "rectangles", len(targets))
	}

	for _, pg := range sel {
		if err := appendix.BakeAnnotations(pg); err != nil {
			return nil, err
		}
	}
	staged := e.ws.TempPath("overlay-src", ".pdf")
	if err := appendix.SaveAs(staged); err != nil {
		return nil, err
	}

	// Content transplants run on the file, so the redactions above have
	// to be on disk first.
	if err := doc.Flush(); err != nil {
		return nil, err
	}
	for i, pg := range sel {
		if i >= len(targets) {
			break
		}
		tgt := targets[i]
		if tgt.basePage < 0 {
			continue
		}
		if err := e.transplant(doc, appendix, pg, tgt, ov.CropEnabled); err != nil {
			return nil, err
		}
	}
	return skips, doc.Reload()
}

// tableRect reconstructs the reserved table rectangle from a located
// marker. The table hangs off the marker's own top-left corner; its
// dimensions travel on the descriptor, never re-measured from the page.
func tableRect(marker geom.Rect, ov placeholder.Overlay) geom.Rect {
	return geom.NewRect(marker.X0, marker.Y0,
		marker.X0+ov.TableWidthPts, marker.Y0+ov.TableHeightPts)
}

// transplant places appendix page pg into tgt on the base document,
// uniformly scaled and centered.
func (e *Engine) transplant(doc *pdf.Document, appendix *pdf.Document, pg int, tgt target, cropEnabled bool) error {
	pageRect, err := appendix.PageRect(pg)
	if err != nil {
		return err
	}
	crop := pageRect
	if cropEnabled {
		bbox, ok, err := appendix.ContentBBox(pg)
		if err != nil {
			return err
		}
		if ok {
			crop = pdf.ApplyPadding(bbox, pageRect, e.crop.EffectivePadding())
		}
	}

	stamp := e.ws.TempPath("overlay-page", ".pdf")
	if err := pdf.ExtractPages(appendix.Path(), stamp, []int{pg}); err != nil {
		return err
	}
	if crop != pageRect {
		if err := pdf.CropPage(stamp, 0, crop, pageRect.Height()); err != nil {
			return err
		}
	}

	baseRect, err := doc.PageRect(tgt.basePage)
	if err != nil {
		return err
	}
	scale, dx, dy := stampPlacement(tgt.rect, crop, baseRect.Height())
	return pdf.StampPage(doc.Path(), tgt.basePage, stamp, scale, dx, dy)
}

// stampPlacement computes the uniform scale fitting crop into tgt and
// the offsets, measured from the base page's bottom-left corner, that
// center the scaled crop within the target rectangle. tgt is in
// top-left coordinates on a base page of height basePageH.
func stampPlacement(tgt, crop geom.Rect, basePageH float64) (scale, dx, dy float64) {
	scale, _, _ = geom.FitTransform(tgt, crop)
	dx = tgt.X0 + (tgt.Width()-crop.Width()*scale)/2
	dy = (basePageH - tgt.Y1) + (tgt.Height()-crop.Height()*scale)/2
	return scale, dx, dy
}
