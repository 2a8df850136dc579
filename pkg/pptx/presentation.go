package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

const (
	nsDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsOfficeDocRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	appPropertiesPart = "docProps/app.xml"
	minSlideID        = 256
)

// ErrNotPresentation is returned when the package has no presentation part.
var ErrNotPresentation = errors.New("package is not a presentation")

// Presentation is an opened .pptx document. It is not safe for concurrent use.
type Presentation struct {
	pkg    *Package
	part   string
	doc    *etree.Document
	rels   *Relationships
	types  *contentTypes
	slides []*Slide
}

// Open reads a presentation from disk. Errors satisfy errors.Is(err, fs.ErrNotExist)
// when the file is missing.
func Open(path string) (*Presentation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(content), int64(len(content)))
}

// Read parses a presentation from an in-memory archive.
func Read(r io.ReaderAt, size int64) (*Presentation, error) {
	pkg, err := ReadPackage(r, size)
	if err != nil {
		return nil, err
	}

	rootRels, err := loadRelationships(pkg, "")
	if err != nil {
		return nil, err
	}
	officeDoc, ok := rootRels.FirstOfType(RelTypeOfficeDocument)
	if !ok {
		return nil, ErrNotPresentation
	}

	p := &Presentation{pkg: pkg, part: rootRels.Resolve(officeDoc)}
	if p.doc, err = pkg.XML(p.part); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	if p.rels, err = loadRelationships(pkg, p.part); err != nil {
		return nil, err
	}
	if p.types, err = loadContentTypes(pkg); err != nil {
		return nil, err
	}
	if err := p.loadSlides(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Presentation) loadSlides() error {
	list := p.slideIDList()
	if list == nil {
		return nil
	}
	for _, sldID := range list.SelectElements("p:sldId") {
		rID := sldID.SelectAttrValue("r:id", "")
		rel, ok := p.rels.Get(rID)
		if !ok {
			return fmt.Errorf("slide relationship %s not found", rID)
		}
		slide, err := loadSlide(p.pkg, p.types, p.rels.Resolve(rel))
		if err != nil {
			return err
		}
		slide.idElement = sldID
		p.slides = append(p.slides, slide)
	}
	return nil
}

// Slides returns the slides in presentation order.
func (p *Presentation) Slides() []*Slide {
	return append([]*Slide(nil), p.slides...)
}

// IndexOf returns the position of s, or -1 when it is not part of the presentation.
func (p *Presentation) IndexOf(s *Slide) int {
	for i, slide := range p.slides {
		if slide == s {
			return i
		}
	}
	return -1
}

// RemoveSlide detaches s from the presentation and deletes its part together
// with its notes. The in-memory slide stays readable so it can still serve as a
// source for copies; parts it references (media, layout) are kept.
func (p *Presentation) RemoveSlide(s *Slide) error {
	idx := p.IndexOf(s)
	if idx < 0 {
		return fmt.Errorf("slide %s is not part of the presentation", s.part)
	}

	rID := s.idElement.SelectAttrValue("r:id", "")
	p.slideIDList().RemoveChild(s.idElement)
	p.rels.Remove(rID)

	for _, rel := range s.rels.All() {
		if rel.Type == RelTypeNotesSlide && !rel.External() {
			notes := s.rels.Resolve(rel)
			p.pkg.Delete(notes)
			p.pkg.Delete(relsPartName(notes))
			p.types.removeOverride(notes)
		}
	}
	p.pkg.Delete(s.part)
	p.pkg.Delete(relsPartName(s.part))
	p.types.removeOverride(s.part)

	p.slides = append(p.slides[:idx], p.slides[idx+1:]...)
	s.idElement = nil
	return nil
}

// AddSlide creates an empty slide bound to the given layout part and inserts it
// at position index. An index outside [0, len] appends.
func (p *Presentation) AddSlide(layoutPart string, index int) (*Slide, error) {
	if !p.pkg.Has(layoutPart) {
		return nil, fmt.Errorf("slide layout %s not found", layoutPart)
	}

	part := p.pkg.NextPartName("ppt/slides/slide", ".xml")
	slide, err := newSlide(p.pkg, p.types, part, layoutPart)
	if err != nil {
		return nil, err
	}
	p.types.addOverride(part, ContentTypeSlide)

	rID := p.rels.Add(RelTypeSlide, relativeTarget(p.part, part), "")
	list := p.slideIDList()
	if list == nil {
		list = etree.NewElement("p:sldIdLst")
		p.insertSlideIDList(list)
	}
	sldID := etree.NewElement("p:sldId")
	sldID.CreateAttr("id", strconv.Itoa(p.nextSlideID()))
	sldID.CreateAttr("r:id", rID)
	slide.idElement = sldID

	if index < 0 || index > len(p.slides) {
		index = len(p.slides)
	}
	if index == len(p.slides) {
		list.AddChild(sldID)
	} else {
		list.InsertChildAt(p.slides[index].idElement.Index(), sldID)
	}
	p.slides = append(p.slides, nil)
	copy(p.slides[index+1:], p.slides[index:])
	p.slides[index] = slide
	return slide, nil
}

// Save serializes the presentation as a .pptx archive.
func (p *Presentation) Save(w io.Writer) error {
	p.rels.save(p.pkg)
	for _, slide := range p.slides {
		slide.rels.save(p.pkg)
	}
	p.syncAppProperties()
	return p.pkg.Write(w)
}

func (p *Presentation) slideIDList() *etree.Element {
	return p.doc.Root().SelectElement("p:sldIdLst")
}

// insertSlideIDList places the list right after p:sldMasterIdLst / p:notesMasterIdLst
// / p:handoutMasterIdLst as the schema requires.
func (p *Presentation) insertSlideIDList(list *etree.Element) {
	root := p.doc.Root()
	at := 0
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst":
			at = child.Index() + 1
		}
	}
	root.InsertChildAt(at, list)
}

func (p *Presentation) nextSlideID() int {
	next := minSlideID
	for _, el := range p.slideIDList().SelectElements("p:sldId") {
		if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

func (p *Presentation) syncAppProperties() {
	if !p.pkg.Has(appPropertiesPart) {
		return
	}
	doc, err := p.pkg.XML(appPropertiesPart)
	if err != nil || doc.Root() == nil {
		return
	}
	if el := doc.Root().SelectElement("Slides"); el != nil {
		el.SetText(strconv.Itoa(len(p.slides)))
	}
}
