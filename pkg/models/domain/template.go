package domain

// TemplateInspection describes the markers found in a template deck.
type TemplateInspection struct {
	Path      string
	Slides    []SlideInspection
	Prototype int // index of the prototype slide, -1 when absent
}

type SlideInspection struct {
	Index   int
	Part    string
	Layout  string
	Shapes  int
	Markers map[string]int
}
