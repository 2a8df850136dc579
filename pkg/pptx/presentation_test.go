package pptx

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/de-tools/report-deck/pkg/pptx/pptxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBytes(t *testing.T, data []byte) *Presentation {
	t.Helper()
	pres, err := Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return pres
}

func roundTrip(t *testing.T, pres *Presentation) (*Presentation, *Package) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, pres.Save(&buf))
	pkg, err := ReadPackage(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return openBytes(t, buf.Bytes()), pkg
}

func threeSlides() []byte {
	return pptxtest.Build(
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Title", "first")}},
		pptxtest.Slide{
			Boxes:    []pptxtest.TextBox{pptxtest.Box("Body", "second")},
			Pictures: []pptxtest.Picture{{Name: "logo", Data: pptxtest.PNG(4, 4)}},
			Notes:    "speaker notes",
		},
		pptxtest.Slide{Boxes: []pptxtest.TextBox{pptxtest.Box("Footer", "third")}},
	)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pptx"))

	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRead_NotAnArchive(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("plain text")), 10)

	assert.Error(t, err)
}

func TestRead_SlidesInOrder(t *testing.T) {
	pres := openBytes(t, threeSlides())

	slides := pres.Slides()
	require.Len(t, slides, 3)
	assert.Equal(t, "first", slides[0].Text())
	assert.Equal(t, "second", slides[1].Text())
	assert.Equal(t, "third", slides[2].Text())
	assert.Equal(t, "ppt/slideLayouts/slideLayout1.xml", slides[1].LayoutPart())
	assert.Len(t, slides[1].Pictures(), 1)
}

func TestPresentation_RemoveSlide(t *testing.T) {
	pres := openBytes(t, threeSlides())
	second := pres.Slides()[1]

	require.NoError(t, pres.RemoveSlide(second))

	assert.Equal(t, -1, pres.IndexOf(second))
	assert.Equal(t, "second", second.Text(), "removed slide stays readable")
	assert.Error(t, pres.RemoveSlide(second))

	reopened, pkg := roundTrip(t, pres)
	require.Len(t, reopened.Slides(), 2)
	assert.Equal(t, "first", reopened.Slides()[0].Text())
	assert.Equal(t, "third", reopened.Slides()[1].Text())
	assert.False(t, pkg.Has("ppt/slides/slide2.xml"))
	assert.False(t, pkg.Has("ppt/notesSlides/notesSlide2.xml"))
	assert.True(t, pkg.Has("ppt/media/image1.png"))

	types, err := pkg.XML(contentTypesPart)
	require.NoError(t, err)
	assert.Nil(t, types.FindElement(`//Override[@PartName='/ppt/slides/slide2.xml']`))

	app, err := pkg.XML(appPropertiesPart)
	require.NoError(t, err)
	assert.Equal(t, "2", app.Root().SelectElement("Slides").Text())
}

func TestPresentation_AddSlide(t *testing.T) {
	pres := openBytes(t, threeSlides())
	layout := pres.Slides()[0].LayoutPart()

	inserted, err := pres.AddSlide(layout, 1)
	require.NoError(t, err)
	appended, err := pres.AddSlide(layout, -1)
	require.NoError(t, err)

	assert.Equal(t, 1, pres.IndexOf(inserted))
	assert.Equal(t, 4, pres.IndexOf(appended))
	assert.Empty(t, inserted.Shapes())

	reopened, pkg := roundTrip(t, pres)
	slides := reopened.Slides()
	require.Len(t, slides, 5)
	assert.Equal(t, "first", slides[0].Text())
	assert.Equal(t, inserted.Part(), slides[1].Part())
	assert.Equal(t, "second", slides[2].Text())
	assert.Equal(t, layout, slides[1].LayoutPart())

	types, err := pkg.XML(contentTypesPart)
	require.NoError(t, err)
	assert.NotNil(t, types.FindElement(`//Override[@PartName='/`+inserted.Part()+`']`))
}

func TestPresentation_AddSlide_UnknownLayout(t *testing.T) {
	pres := openBytes(t, threeSlides())

	_, err := pres.AddSlide("ppt/slideLayouts/slideLayout99.xml", 0)

	assert.Error(t, err)
}

func TestSlide_CopyShape_IsDeep(t *testing.T) {
	pres := openBytes(t, threeSlides())
	src := pres.Slides()[0]
	dst, err := pres.AddSlide(src.LayoutPart(), -1)
	require.NoError(t, err)

	copied, err := dst.CopyShape(src, src.Shapes()[0])
	require.NoError(t, err)
	copied.ReplaceText("first", "changed")

	assert.Equal(t, "first", src.Text())
	assert.Equal(t, "changed", dst.Text())
}

func TestSlide_CopyShape_RelinksPictures(t *testing.T) {
	pres := openBytes(t, threeSlides())
	src := pres.Slides()[1]
	require.NoError(t, pres.RemoveSlide(src))
	dst, err := pres.AddSlide(src.LayoutPart(), 1)
	require.NoError(t, err)

	for _, sh := range src.Shapes() {
		_, err := dst.CopyShape(src, sh)
		require.NoError(t, err)
	}

	pics := dst.Pictures()
	require.Len(t, pics, 1)
	embed := pics[0].Element().FindElement(".//a:blip").SelectAttrValue("r:embed", "")
	rel, ok := dst.Relationships().Get(embed)
	require.True(t, ok)
	assert.Equal(t, RelTypeImage, rel.Type)
	assert.Equal(t, "ppt/media/image1.png", dst.Relationships().Resolve(rel))

	reopened, _ := roundTrip(t, pres)
	require.Len(t, reopened.Slides(), 3)
	assert.Equal(t, "second", reopened.Slides()[1].Text())
	assert.Len(t, reopened.Slides()[1].Pictures(), 1)
}

func TestSlide_CopyShape_MissingRelationship(t *testing.T) {
	pres := openBytes(t, threeSlides())
	src := pres.Slides()[1]
	dst, err := pres.AddSlide(src.LayoutPart(), -1)
	require.NoError(t, err)
	src.Relationships().Remove("rId2")

	_, err = dst.CopyShape(src, src.Pictures()[0])

	assert.Error(t, err)
	assert.Empty(t, dst.Shapes())
}

func TestSlide_AddPicture(t *testing.T) {
	pres := openBytes(t, threeSlides())
	slide := pres.Slides()[0]

	pic, err := slide.AddPicture("camera.png", pptxtest.PNG(200, 100), Frame{
		Left:  Inches(4),
		Top:   Inches(2),
		Width: Inches(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "pic", pic.Kind())
	assert.Equal(t, 3, pic.ID())
	ext := pic.Element().FindElement(".//a:ext")
	assert.Equal(t, "4572000", ext.SelectAttrValue("cx", ""))
	assert.Equal(t, "2286000", ext.SelectAttrValue("cy", ""))
	off := pic.Element().FindElement(".//a:off")
	assert.Equal(t, "3657600", off.SelectAttrValue("x", ""))
	assert.Equal(t, "1828800", off.SelectAttrValue("y", ""))

	_, pkg := roundTrip(t, pres)
	assert.True(t, pkg.Has("ppt/media/image2.png"))
}

func TestSlide_AddPicture_Unsupported(t *testing.T) {
	pres := openBytes(t, threeSlides())

	_, err := pres.Slides()[0].AddPicture("x.png", []byte("not an image"), Frame{Width: Inches(1)})

	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Empty(t, pres.Slides()[0].Pictures())
}

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		w, h  EMU
	}{
		{"width only", Frame{Width: 1000}, 1000, 500},
		{"height only", Frame{Height: 1000}, 2000, 1000},
		{"both", Frame{Width: 10, Height: 10}, 10, 10},
		{"native", Frame{}, 200 * 12700, 100 * 12700},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, h := scale(tc.frame, 200, 100)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, h)
		})
	}
}

func TestTargets(t *testing.T) {
	assert.Equal(t, "ppt/slideLayouts/slideLayout1.xml", resolveTarget("ppt/slides/slide1.xml", "../slideLayouts/slideLayout1.xml"))
	assert.Equal(t, "ppt/slides/slide2.xml", resolveTarget("ppt/presentation.xml", "slides/slide2.xml"))
	assert.Equal(t, "ppt/presentation.xml", resolveTarget("", "ppt/presentation.xml"))
	assert.Equal(t, "ppt/media/image1.png", resolveTarget("ppt/slides/slide1.xml", "/ppt/media/image1.png"))

	assert.Equal(t, "../media/image1.png", relativeTarget("ppt/slides/slide1.xml", "ppt/media/image1.png"))
	assert.Equal(t, "slides/slide2.xml", relativeTarget("ppt/presentation.xml", "ppt/slides/slide2.xml"))
	assert.Equal(t, "slide3.xml", relativeTarget("ppt/slides/slide1.xml", "ppt/slides/slide3.xml"))

	assert.Equal(t, "ppt/slides/_rels/slide1.xml.rels", relsPartName("ppt/slides/slide1.xml"))
	assert.Equal(t, "_rels/.rels", relsPartName(""))
}

func TestInches(t *testing.T) {
	assert.Equal(t, EMU(914400), Inches(1))
	assert.InDelta(t, 2.5, Inches(2.5).Inches(), 1e-9)
}
