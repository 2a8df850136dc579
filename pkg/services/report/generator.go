package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/report-deck/pkg/models/domain"
	"github.com/de-tools/report-deck/pkg/pptx"
	"github.com/de-tools/report-deck/pkg/services/fetch"
)

// DefaultHeaderSlides is the number of leading slides that carry project markers.
const DefaultHeaderSlides = 2

// DefaultImageFrame places record pictures 4in from the left, 2in from the
// top, 5in wide. Height follows the aspect ratio.
var DefaultImageFrame = pptx.Frame{
	Left:  pptx.Inches(4),
	Top:   pptx.Inches(2),
	Width: pptx.Inches(5),
}

// ResourceFetcher downloads record images.
type ResourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Resource, error)
}

type Config struct {
	TemplatePath string
	// OutputDir receives generated files; empty means os.TempDir().
	OutputDir    string
	HeaderSlides int
	Image        pptx.Frame
}

// Result summarizes one generated report.
type Result struct {
	Path           string
	Slides         int
	RecordSlides   int
	PrototypeFound bool
	Diagnostics    []*RecordError
}

// Degraded reports whether any record slide was produced with problems.
func (r *Result) Degraded() bool {
	return len(r.Diagnostics) > 0
}

type Generator struct {
	config  Config
	fetcher ResourceFetcher
}

func NewGenerator(config Config, fetcher ResourceFetcher) *Generator {
	if config.HeaderSlides <= 0 {
		config.HeaderSlides = DefaultHeaderSlides
	}
	if config.Image.Width == 0 && config.Image.Height == 0 {
		config.Image = DefaultImageFrame
	}
	return &Generator{config: config, fetcher: fetcher}
}

// WithTemplate returns a copy of g that instantiates the template at path.
func (g *Generator) WithTemplate(path string) *Generator {
	c := *g
	c.config.TemplatePath = path
	return &c
}

// Generate instantiates the template for in and writes the result to a
// uniquely named file in the output directory. The caller owns the file.
func (g *Generator) Generate(ctx context.Context, in domain.ReportInput) (*Result, error) {
	dir := g.config.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("informe_%s.pptx", uuid.NewString()))

	pres, err := g.load()
	if err != nil {
		return nil, err
	}
	res, err := g.instantiate(ctx, pres, in)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	if err := pres.Save(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}

	res.Path = path
	return res, nil
}

// Render instantiates the template for in and streams the deck to w.
func (g *Generator) Render(ctx context.Context, in domain.ReportInput, w io.Writer) (*Result, error) {
	pres, err := g.load()
	if err != nil {
		return nil, err
	}
	res, err := g.instantiate(ctx, pres, in)
	if err != nil {
		return nil, err
	}
	if err := pres.Save(w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return res, nil
}

// load opens a fresh copy of the template; the template file is never modified.
func (g *Generator) load() (*pptx.Presentation, error) {
	pres, err := pptx.Open(g.config.TemplatePath)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTemplateInvalid, err)
	}
	return pres, nil
}

func (g *Generator) instantiate(ctx context.Context, pres *pptx.Presentation, in domain.ReportInput) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	res := &Result{}

	slides := pres.Slides()
	for i, slide := range slides {
		if i < g.config.HeaderSlides {
			substituteSlide(slide, projectReplacements(in.Project))
		}
		substituteSlide(slide, aggregateReplacements(in))
	}

	proto, at, found := LocatePrototype(slides)
	res.PrototypeFound = found
	if !found {
		logger.Warn().
			Str("template", g.config.TemplatePath).
			Int("records", len(in.Cameras)).
			Msg("prototype slide not found, record slides skipped")
		res.Slides = len(pres.Slides())
		return res, nil
	}
	if err := pres.RemoveSlide(proto); err != nil {
		return nil, fmt.Errorf("failed to remove prototype slide: %w", err)
	}

	position := at
	for i, camera := range in.Cameras {
		slide, errs := cloneForRecord(pres, proto, position)
		for _, err := range errs {
			res.Diagnostics = append(res.Diagnostics, &RecordError{Index: i, Number: camera.Number, Stage: StageClone, Err: err})
		}
		if slide == nil {
			continue
		}
		position++
		res.RecordSlides++

		substituteSlide(slide, cameraReplacements(camera))

		if camera.HasImage() {
			if diag := g.embedImage(ctx, slide, camera); diag != nil {
				diag.Index = i
				res.Diagnostics = append(res.Diagnostics, diag)
			}
		}
	}

	for _, diag := range res.Diagnostics {
		logger.Warn().
			Err(diag.Err).
			Int("record", diag.Index).
			Int("camera", diag.Number).
			Str("stage", string(diag.Stage)).
			Msg("record slide degraded")
	}

	res.Slides = len(pres.Slides())
	logger.Info().
		Int("slides", res.Slides).
		Int("records", res.RecordSlides).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("report instantiated")
	return res, nil
}

func (g *Generator) embedImage(ctx context.Context, slide *pptx.Slide, camera domain.Camera) *RecordError {
	if g.fetcher == nil {
		return &RecordError{Number: camera.Number, Stage: StageFetch, Err: errors.New("no fetcher configured")}
	}
	resource, err := g.fetcher.Fetch(ctx, camera.ImageURL)
	if err != nil {
		return &RecordError{Number: camera.Number, Stage: StageFetch, Err: err}
	}
	defer func() {
		if err := resource.Release(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", resource.Path).Msg("failed to release image")
		}
	}()

	if _, err := slide.AddPictureFile(resource.Path, g.config.Image); err != nil {
		return &RecordError{Number: camera.Number, Stage: StageEmbed, Err: err}
	}
	return nil
}
