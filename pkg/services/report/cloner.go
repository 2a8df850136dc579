package report

import (
	"fmt"

	"github.com/de-tools/report-deck/pkg/pptx"
)

// cloneForRecord creates a slide on the prototype's layout at position index
// and deep-copies the prototype background and shapes into it, in order.
// Elements that cannot be copied are reported and skipped; the slide is
// returned as long as it could be created.
func cloneForRecord(pres *pptx.Presentation, proto *pptx.Slide, index int) (*pptx.Slide, []error) {
	slide, err := pres.AddSlide(proto.LayoutPart(), index)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to create slide: %w", err)}
	}

	var errs []error
	if err := slide.CopyBackground(proto); err != nil {
		errs = append(errs, err)
	}
	for _, shape := range proto.Shapes() {
		if _, err := slide.CopyShape(proto, shape); err != nil {
			errs = append(errs, err)
		}
	}
	return slide, errs
}
