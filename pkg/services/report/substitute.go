package report

import (
	"fmt"

	"github.com/de-tools/report-deck/pkg/pptx"
)

// Substitute replaces every occurrence of marker in the shape text with the
// textual form of value and returns the number of replacements. Shapes
// without text and texts without the marker are left untouched.
func Substitute(shape *pptx.Shape, marker string, value any) int {
	if shape == nil || marker == "" || !shape.HasTextFrame() {
		return 0
	}
	return shape.ReplaceText(marker, fmt.Sprint(value))
}

func substituteSlide(slide *pptx.Slide, replacements []replacement) int {
	count := 0
	for _, shape := range slide.AllShapes() {
		for _, r := range replacements {
			count += Substitute(shape, r.marker, r.value)
		}
	}
	return count
}
