package report

import (
	"strings"

	"github.com/de-tools/report-deck/pkg/pptx"
)

// LocatePrototype scans slides in order and returns the first one with a
// shape whose text contains the sentinel marker. Later matches are ignored.
func LocatePrototype(slides []*pptx.Slide) (*pptx.Slide, int, bool) {
	for i, slide := range slides {
		for _, shape := range slide.AllShapes() {
			if shape.HasTextFrame() && strings.Contains(shape.Text(), SentinelMarker) {
				return slide, i, true
			}
		}
	}
	return nil, -1, false
}
