package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/de-tools/report-deck/pkg/models/domain"
	"github.com/de-tools/report-deck/pkg/services/report"
)

type TableConfig struct {
	IndexWidth   int
	PartWidth    int
	ShapesWidth  int
	MarkersWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		IndexWidth:   5,
		PartWidth:    28,
		ShapesWidth:  6,
		MarkersWidth: 60,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// HandleInspection prints one table row per slide with its marker counts.
func (c *Reporter) HandleInspection(inspection *domain.TemplateInspection) error {
	funcMap := template.FuncMap{
		"formatRow": func(index interface{}, part string, shapes interface{}, markers string) string {
			return fmt.Sprintf("| %-*v | %-*s | %-*v | %-*s |",
				c.config.IndexWidth, index,
				c.config.PartWidth, part,
				c.config.ShapesWidth, shapes,
				c.config.MarkersWidth, markers)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.IndexWidth+2),
				strings.Repeat("-", c.config.PartWidth+2),
				strings.Repeat("-", c.config.ShapesWidth+2),
				strings.Repeat("-", c.config.MarkersWidth+2))
		},
		"markers":  formatMarkers,
		"sentinel": func() string { return report.SentinelMarker },
		"slideNumber": func(i int) string {
			return fmt.Sprintf("%d", i+1)
		},
		"prototype": func(i int) string {
			if i < 0 {
				return "not found (record slides will be skipped)"
			}
			return fmt.Sprintf("slide %d", i+1)
		},
	}

	tmpl := `
Template: {{.Path}}
Slides: {{len .Slides}}
Prototype ({{sentinel}}): {{prototype .Prototype}}

{{separator}}
{{formatRow "#" "Part" "Shapes" "Markers"}}
{{separator}}
{{range .Slides}}{{formatRow (slideNumber .Index) .Part .Shapes (markers .Markers)}}
{{end}}{{separator}}
`

	t, err := template.New("inspection").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, inspection)
}

func formatMarkers(markers map[string]int) string {
	if len(markers) == 0 {
		return "-"
	}
	names := make([]string, 0, len(markers))
	for name := range markers {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if n := markers[name]; n > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", name, n))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}
