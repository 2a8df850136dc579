package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Slide is a single slide part together with its relationships.
type Slide struct {
	pkg        *Package
	types      *contentTypes
	part       string
	layoutPart string
	doc        *etree.Document
	rels       *Relationships
	idElement  *etree.Element
}

func loadSlide(pkg *Package, types *contentTypes, part string) (*Slide, error) {
	doc, err := pkg.XML(part)
	if err != nil {
		return nil, err
	}
	rels, err := loadRelationships(pkg, part)
	if err != nil {
		return nil, err
	}
	s := &Slide{pkg: pkg, types: types, part: part, doc: doc, rels: rels}
	if layout, ok := rels.FirstOfType(RelTypeSlideLayout); ok {
		s.layoutPart = rels.Resolve(layout)
	}
	if s.spTree() == nil {
		return nil, fmt.Errorf("slide %s has no shape tree", part)
	}
	return s, nil
}

func newSlide(pkg *Package, types *contentTypes, part, layoutPart string) (*Slide, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("p:sld")
	root.CreateAttr("xmlns:a", nsDrawingML)
	root.CreateAttr("xmlns:r", nsOfficeDocRels)
	root.CreateAttr("xmlns:p", nsPresentation)

	tree := root.CreateElement("p:cSld").CreateElement("p:spTree")
	nvGrpSpPr := tree.CreateElement("p:nvGrpSpPr")
	cNvPr := nvGrpSpPr.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	nvGrpSpPr.CreateElement("p:cNvGrpSpPr")
	nvGrpSpPr.CreateElement("p:nvPr")
	xfrm := tree.CreateElement("p:grpSpPr").CreateElement("a:xfrm")
	for _, child := range []struct{ tag, x, y string }{
		{"a:off", "x", "y"},
		{"a:ext", "cx", "cy"},
		{"a:chOff", "x", "y"},
		{"a:chExt", "cx", "cy"},
	} {
		el := xfrm.CreateElement(child.tag)
		el.CreateAttr(child.x, "0")
		el.CreateAttr(child.y, "0")
	}
	root.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")

	pkg.PutXML(part, doc)
	rels, err := loadRelationships(pkg, part)
	if err != nil {
		return nil, err
	}
	rels.Add(RelTypeSlideLayout, relativeTarget(part, layoutPart), "")
	rels.save(pkg)

	return &Slide{pkg: pkg, types: types, part: part, layoutPart: layoutPart, doc: doc, rels: rels}, nil
}

// Part returns the package part name, e.g. ppt/slides/slide2.xml.
func (s *Slide) Part() string {
	return s.part
}

// LayoutPart returns the part name of the slide layout the slide follows.
func (s *Slide) LayoutPart() string {
	return s.layoutPart
}

// Relationships exposes the slide's relationship set.
func (s *Slide) Relationships() *Relationships {
	return s.rels
}

func (s *Slide) spTree() *etree.Element {
	return s.doc.Root().FindElement("p:cSld/p:spTree")
}

// Shapes returns the top-level shapes of the slide in z-order.
func (s *Slide) Shapes() []*Shape {
	return childShapes(s.spTree())
}

// AllShapes returns every shape including the members of group shapes,
// depth first in document order.
func (s *Slide) AllShapes() []*Shape {
	var out []*Shape
	var walk func(shapes []*Shape)
	walk = func(shapes []*Shape) {
		for _, sh := range shapes {
			out = append(out, sh)
			if sh.IsGroup() {
				walk(childShapes(sh.el))
			}
		}
	}
	walk(s.Shapes())
	return out
}

// Text concatenates the text of every shape, one shape per line.
func (s *Slide) Text() string {
	var parts []string
	for _, sh := range s.AllShapes() {
		if sh.HasTextFrame() {
			parts = append(parts, sh.Text())
		}
	}
	return strings.Join(parts, "\n")
}

// CopyShape deep-copies a shape of another slide to the end of this slide's
// shape tree. Relationships referenced by the shape (pictures, links, media)
// are re-created on this slide so the copy stays valid. The source is not
// modified.
func (s *Slide) CopyShape(src *Slide, shape *Shape) (*Shape, error) {
	clone := shape.el.Copy()
	if err := s.relink(src, clone); err != nil {
		return nil, fmt.Errorf("shape %q: %w", shape.Name(), err)
	}
	s.renumber(clone)
	s.insertShape(clone)
	return &Shape{el: clone}, nil
}

// CopyBackground copies the slide background of src, if it defines one.
func (s *Slide) CopyBackground(src *Slide) error {
	bg := src.doc.Root().FindElement("p:cSld/p:bg")
	if bg == nil {
		return nil
	}
	clone := bg.Copy()
	if err := s.relink(src, clone); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	cSld := s.doc.Root().SelectElement("p:cSld")
	if old := cSld.SelectElement("p:bg"); old != nil {
		cSld.RemoveChild(old)
	}
	cSld.InsertChildAt(0, clone)
	return nil
}

func (s *Slide) insertShape(el *etree.Element) {
	tree := s.spTree()
	if ext := tree.SelectElement("p:extLst"); ext != nil {
		tree.InsertChildAt(ext.Index(), el)
		return
	}
	tree.AddChild(el)
}

// relink rewrites every r:* attribute of el so that it points at a
// relationship of s with the same target as in src.
func (s *Slide) relink(src *Slide, el *etree.Element) error {
	nodes := append([]*etree.Element{el}, el.FindElements(".//*")...)
	for _, node := range nodes {
		for i := range node.Attr {
			attr := &node.Attr[i]
			if attr.Space != "r" || attr.Value == "" {
				continue
			}
			rel, ok := src.rels.Get(attr.Value)
			if !ok {
				return fmt.Errorf("relationship %s not found in %s", attr.Value, src.part)
			}
			target := rel.Target
			if !rel.External() {
				target = relativeTarget(s.part, src.rels.Resolve(rel))
			}
			attr.Value = s.relationshipFor(rel.Type, target, rel.TargetMode)
		}
	}
	return nil
}

func (s *Slide) relationshipFor(relType, target, mode string) string {
	for _, rel := range s.rels.All() {
		if rel.Type == relType && rel.Target == target && rel.TargetMode == mode {
			return rel.ID
		}
	}
	return s.rels.Add(relType, target, mode)
}

// renumber gives copied drawing objects ids that are unused on this slide.
func (s *Slide) renumber(el *etree.Element) {
	used := s.shapeIDs()
	next := 1
	for _, cNvPr := range append([]*etree.Element{el}, el.FindElements(".//*")...) {
		if cNvPr.Tag != "cNvPr" {
			continue
		}
		id, err := strconv.Atoi(cNvPr.SelectAttrValue("id", ""))
		if err == nil && !used[id] {
			used[id] = true
			continue
		}
		for used[next] {
			next++
		}
		used[next] = true
		cNvPr.CreateAttr("id", strconv.Itoa(next))
	}
}

func (s *Slide) shapeIDs() map[int]bool {
	ids := make(map[int]bool)
	for _, el := range s.spTree().FindElements(".//*") {
		if el.Tag != "cNvPr" {
			continue
		}
		if id, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil {
			ids[id] = true
		}
	}
	return ids
}

func (s *Slide) nextShapeID() int {
	next := 0
	for id := range s.shapeIDs() {
		if id > next {
			next = id
		}
	}
	return next + 1
}

func childShapes(parent *etree.Element) []*Shape {
	if parent == nil {
		return nil
	}
	var shapes []*Shape
	for _, child := range parent.ChildElements() {
		switch child.Tag {
		case "nvGrpSpPr", "grpSpPr", "extLst":
			continue
		}
		shapes = append(shapes, &Shape{el: child})
	}
	return shapes
}
