package overlay

import (
	"math"
	"testing"

	"github.com/stitchpdf/stitch/internal/geom"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTableRect(t *testing.T) {
	ov := placeholder.Overlay{TableWidthPts: 200, TableHeightPts: 100}
	marker := geom.NewRect(100, 100, 160, 112)

	got := tableRect(marker, ov)
	want := geom.NewRect(100, 100, 300, 200)
	if got != want {
		t.Errorf("tableRect = %+v, want %+v", got, want)
	}
}

func TestStampPlacement(t *testing.T) {
	t.Run("wide crop fills target width and centers vertically", func(t *testing.T) {
		// Target 200x100 at (100,200) on a 792pt page; crop 400x100.
		tgt := geom.NewRect(100, 200, 300, 300)
		crop := geom.NewRect(0, 0, 400, 100)
		scale, dx, dy := stampPlacement(tgt, crop, 792)
		if !near(scale, 0.5) {
			t.Errorf("scale = %v, want 0.5", scale)
		}
		// Scaled crop is 200x50: flush left, centered in height.
		if !near(dx, 100) {
			t.Errorf("dx = %v, want 100", dx)
		}
		// Target bottom sits at 792-300 = 492; half the 50pt slack above.
		if !near(dy, 492+25) {
			t.Errorf("dy = %v, want 517", dy)
		}
	})

	t.Run("tall crop fills target height and centers horizontally", func(t *testing.T) {
		tgt := geom.NewRect(0, 0, 100, 100)
		crop := geom.NewRect(0, 0, 50, 200)
		scale, dx, dy := stampPlacement(tgt, crop, 792)
		if !near(scale, 0.5) {
			t.Errorf("scale = %v, want 0.5", scale)
		}
		// Scaled crop is 25x100: centered in width, flush in height.
		if !near(dx, 37.5) {
			t.Errorf("dx = %v, want 37.5", dx)
		}
		if !near(dy, 692) {
			t.Errorf("dy = %v, want 692", dy)
		}
	})

	t.Run("exact fit has no slack", func(t *testing.T) {
		tgt := geom.NewRect(10, 10, 110, 60)
		crop := geom.NewRect(5, 5, 205, 105)
		scale, dx, dy := stampPlacement(tgt, crop, 500)
		if !near(scale, 0.5) {
			t.Errorf("scale = %v, want 0.5", scale)
		}
		if !near(dx, 10) || !near(dy, 500-60) {
			t.Errorf("offsets = (%v,%v), want (10,440)", dx, dy)
		}
	})

	t.Run("aspect ratio preserved", func(t *testing.T) {
		tgt := geom.NewRect(0, 0, 300, 100)
		crop := geom.NewRect(0, 0, 120, 80)
		scale, _, _ := stampPlacement(tgt, crop, 792)
		// Height constrains: 100/80.
		if !near(scale, 1.25) {
			t.Errorf("scale = %v, want 1.25", scale)
		}
	})
}
