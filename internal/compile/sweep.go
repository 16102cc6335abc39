package compile

import (
	"fmt"
	"log/slog"

	"github.com/stitchpdf/stitch/internal/pdf"
	"github.com/stitchpdf/stitch/internal/placeholder"
)

// Sweep removes every residual placeholder marker from doc. Markers
// remain after a run when a stage skipped their placeholder; the output
// must not ship internal tokens. Returns the number of markers removed.
func Sweep(doc *pdf.Document, log *slog.Logger) (int, error) {
	if err := doc.Flush(); err != nil {
		return 0, err
	}
	matches, err := doc.FindAllMarkers(placeholder.MarkerPattern)
	if err != nil {
		return 0, fmt.Errorf("scanning for residual markers: %w", err)
	}
	if len(matches) == 0 {
		return 0, nil
	}

	removed := 0
	for _, m := range matches {
		ok, err := doc.RedactText(m.Page, m.Rect)
		if err != nil {
			return removed, fmt.Errorf("removing marker %q on page %d: %w", m.Text, m.Page, err)
		}
		if !ok {
			log.Warn("residual marker located but not removable", "marker", m.Text, "page", m.Page)
			continue
		}
		log.Debug("residual marker removed", "marker", m.Text, "page", m.Page)
		removed++
	}
	if removed > 0 {
		if err := doc.Flush(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
