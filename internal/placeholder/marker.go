package placeholder

import (
	"fmt"
	"regexp"
)

// Marker tokens are synthetic literals embedded pre-render so positions
// survive the trip through an external layout engine. The zero-padded
// ordinal keeps every token unique within one compilation run; the
// locator relies on exact-match search, so the renderer must not line-wrap
// or font-substitute them.
const (
	overlayMarkerFmt      = "%%%%OVERLAY_START_%02d%%%%"
	continuationMarkerFmt = "%%%%OVERLAY_START_%02d_PAGE_%02d%%%%"
	mergeMarkerFmt        = "%%%%MERGE_START_%02d%%%%"
)

// MarkerPattern matches any residual marker token. The final sweep uses it
// to clean up markers left behind by skipped placeholders.
var MarkerPattern = regexp.MustCompile(`%%(?:OVERLAY|MERGE)_START_\d{2,}(?:_PAGE_\d{2,})?%%`)

// OverlayMarker returns the main marker token for overlay ordinal nn.
func OverlayMarker(nn int) string {
	return fmt.Sprintf(overlayMarkerFmt, nn)
}

// ContinuationMarkerText returns the token for appendix page pp (1-based,
// pp >= 2) of overlay ordinal nn.
func ContinuationMarkerText(nn, pp int) string {
	return fmt.Sprintf(continuationMarkerFmt, nn, pp)
}

// MergeMarker returns the marker token for merge ordinal nn.
func MergeMarker(nn int) string {
	return fmt.Sprintf(mergeMarkerFmt, nn)
}

// ContinuationsFor builds the continuation markers for overlay ordinal
// nn spanning pageCount appendix pages: one marker per page beyond the
// first.
func ContinuationsFor(nn, pageCount int) []ContinuationMarker {
	var out []ContinuationMarker
	for pp := 2; pp <= pageCount; pp++ {
		out = append(out, ContinuationMarker{MarkerText: ContinuationMarkerText(nn, pp), Ordinal: pp})
	}
	return out
}
