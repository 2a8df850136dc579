package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/beevik/etree"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedImage is returned when picture bytes cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported image format")

// defaultDPI is assumed for images that carry no resolution information.
const defaultDPI = 72

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// Frame positions a picture. A zero Width or Height is derived from the other
// dimension and the image aspect ratio; both zero keeps the native size.
type Frame struct {
	Left   EMU
	Top    EMU
	Width  EMU
	Height EMU
}

// AddPictureFile embeds the image stored at path.
func (s *Slide) AddPictureFile(path string, frame Frame) (*Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read picture: %w", err)
	}
	return s.AddPicture(filepath.Base(path), data, frame)
}

// AddPicture stores data as a media part and places it on top of the slide.
func (s *Slide) AddPicture(name string, data []byte, frame Frame) (*Shape, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	contentType, ok := imageContentTypes[format]
	if !ok || cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}

	media := s.pkg.NextPartName("ppt/media/image", "."+format)
	s.pkg.Put(media, data)
	s.types.ensureDefault(format, contentType)
	rID := s.rels.Add(RelTypeImage, relativeTarget(s.part, media), "")

	width, height := scale(frame, cfg.Width, cfg.Height)
	id := s.nextShapeID()
	pic := newPicture(id, name, rID, frame.Left, frame.Top, width, height)
	s.insertShape(pic)
	return &Shape{el: pic}, nil
}

func scale(frame Frame, px, py int) (EMU, EMU) {
	switch {
	case frame.Width > 0 && frame.Height > 0:
		return frame.Width, frame.Height
	case frame.Width > 0:
		return frame.Width, EMU(int64(frame.Width) * int64(py) / int64(px))
	case frame.Height > 0:
		return EMU(int64(frame.Height) * int64(px) / int64(py)), frame.Height
	default:
		perPixel := int64(emuPerInch / defaultDPI)
		return EMU(int64(px) * perPixel), EMU(int64(py) * perPixel)
	}
}

func newPicture(id int, descr, rID string, x, y, cx, cy EMU) *etree.Element {
	pic := etree.NewElement("p:pic")

	nv := pic.CreateElement("p:nvPicPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("Picture %d", id-1))
	cNvPr.CreateAttr("descr", descr)
	nv.CreateElement("p:cNvPicPr").CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	fill := pic.CreateElement("p:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", rID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(int64(x), 10))
	off.CreateAttr("y", strconv.FormatInt(int64(y), 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(int64(cx), 10))
	ext.CreateAttr("cy", strconv.FormatInt(int64(cy), 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return pic
}

// Pictures returns the picture shapes of the slide, including grouped ones.
func (s *Slide) Pictures() []*Shape {
	var pics []*Shape
	for _, sh := range s.AllShapes() {
		if sh.Kind() == "pic" {
			pics = append(pics, sh)
		}
	}
	return pics
}
