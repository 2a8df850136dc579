package export

import (
	"fmt"
	"text/template"

	"github.com/de-tools/report-deck/pkg/services/report"
)

// Rendered describes a report written by the render command.
type Rendered struct {
	Output string
	Result *report.Result
}

func (c *Reporter) HandleRender(r Rendered) error {
	tmpl := `
Report written to {{.Output}}
Slides: {{.Result.Slides}} ({{.Result.RecordSlides}} record slides)
{{if not .Result.PrototypeFound}}Warning: no prototype slide found, record slides were skipped
{{end}}{{if .Result.Diagnostics}}
=== Diagnostics ===
{{range .Result.Diagnostics}}- camera {{.Number}} (record {{.Index}}) {{.Stage}}: {{.Err}}
{{end}}{{end}}`

	t, err := template.New("render").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, r)
}
