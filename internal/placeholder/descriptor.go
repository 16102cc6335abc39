// Package placeholder defines the descriptors that drive appendix
// insertion, and the marker token grammar used to re-locate them after
// rendering.
package placeholder

import (
	"fmt"
	"path/filepath"
)

// Kind discriminates descriptor variants.
type Kind string

const (
	KindOverlay Kind = "overlay"
	KindMerge   Kind = "merge"
)

// Descriptor is the closed set of placeholder variants. A descriptor is
// constructed once, before compilation, and is read-only from then on.
type Descriptor interface {
	Kind() Kind
	// Ord is the unique insertion-order index assigned at scan time.
	Ord() int
	// Marker is the literal token embedded in the source document.
	Marker() string
	// Source is the appendix PDF path.
	Source() string
	// Pages is the page-selection spec ("" means all pages).
	Pages() string
}

// ContinuationMarker identifies the replicated-table marker for one
// appendix page beyond the first of a multi-page overlay.
type ContinuationMarker struct {
	MarkerText string `yaml:"marker"`
	Ordinal    int    `yaml:"ordinal"` // 1-based appendix page position it serves
}

// Overlay fits appendix pages into a reserved table rectangle. Table
// geometry travels on the descriptor itself; it is never re-derived from
// the rendered page.
type Overlay struct {
	Index          int                  `yaml:"index"`
	MarkerText     string               `yaml:"marker"`
	Continuations  []ContinuationMarker `yaml:"continuations,omitempty"`
	TableWidthPts  float64              `yaml:"table_width_pts"`
	TableHeightPts float64              `yaml:"table_height_pts"`
	CropEnabled    bool                 `yaml:"crop_enabled"`
	SourcePath     string               `yaml:"source"`
	PageSpec       string               `yaml:"pages,omitempty"`
}

func (o Overlay) Kind() Kind     { return KindOverlay }
func (o Overlay) Ord() int       { return o.Index }
func (o Overlay) Marker() string { return o.MarkerText }
func (o Overlay) Source() string { return o.SourcePath }
func (o Overlay) Pages() string  { return o.PageSpec }

// Merge inserts whole appendix pages after the paragraph that carried the
// placeholder.
type Merge struct {
	Index      int    `yaml:"index"`
	MarkerText string `yaml:"marker"`
	SourcePath string `yaml:"source"`
	PageSpec   string `yaml:"pages,omitempty"`
}

func (m Merge) Kind() Kind     { return KindMerge }
func (m Merge) Ord() int       { return m.Index }
func (m Merge) Marker() string { return m.MarkerText }
func (m Merge) Source() string { return m.SourcePath }
func (m Merge) Pages() string  { return m.PageSpec }

// Validate checks structural requirements shared by both variants.
func Validate(d Descriptor) error {
	if d.Marker() == "" {
		return fmt.Errorf("placeholder %d: empty marker", d.Ord())
	}
	if d.Source() == "" {
		return fmt.Errorf("placeholder %d: empty source path", d.Ord())
	}
	if o, ok := d.(Overlay); ok {
		if o.TableWidthPts <= 0 || o.TableHeightPts <= 0 {
			return fmt.Errorf("placeholder %d: non-positive table geometry %.1fx%.1f",
				o.Index, o.TableWidthPts, o.TableHeightPts)
		}
		for i, c := range o.Continuations {
			if c.MarkerText == "" {
				return fmt.Errorf("placeholder %d: continuation %d has empty marker", o.Index, i)
			}
		}
	}
	return nil
}

// ResolveSource resolves a relative appendix path against the directory of
// the source document.
func ResolveSource(d Descriptor, baseDir string) string {
	p := d.Source()
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
