package report

import (
	"regexp"

	"github.com/de-tools/report-deck/pkg/models/domain"
)

var markerPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

// Inspect lists the markers present on every slide of the template at path
// and where the prototype slide is. The template is not modified.
func Inspect(path string) (*domain.TemplateInspection, error) {
	g := &Generator{config: Config{TemplatePath: path}}
	pres, err := g.load()
	if err != nil {
		return nil, err
	}

	slides := pres.Slides()
	out := &domain.TemplateInspection{Path: path, Prototype: -1}
	if _, at, ok := LocatePrototype(slides); ok {
		out.Prototype = at
	}
	for i, slide := range slides {
		si := domain.SlideInspection{
			Index:   i,
			Part:    slide.Part(),
			Layout:  slide.LayoutPart(),
			Shapes:  len(slide.Shapes()),
			Markers: map[string]int{},
		}
		for _, shape := range slide.AllShapes() {
			if !shape.HasTextFrame() {
				continue
			}
			for _, m := range markerPattern.FindAllString(shape.Text(), -1) {
				si.Markers[m]++
			}
		}
		out.Slides = append(out.Slides, si)
	}
	return out, nil
}
