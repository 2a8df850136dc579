package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeNotesSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// External reports whether the target lives outside the package.
func (r Relationship) External() bool {
	return r.TargetMode == "External"
}

// Relationships is the editable relationship set of a single source part.
type Relationships struct {
	source string
	doc    *etree.Document
}

func loadRelationships(pkg *Package, source string) (*Relationships, error) {
	name := relsPartName(source)
	if !pkg.Has(name) {
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", nsRelationships)
		return &Relationships{source: source, doc: doc}, nil
	}
	doc, err := pkg.XML(name)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("relationships part %s has no root", name)
	}
	return &Relationships{source: source, doc: doc}, nil
}

// All returns the relationships in document order.
func (r *Relationships) All() []Relationship {
	var rels []Relationship
	for _, el := range r.doc.Root().SelectElements("Relationship") {
		rels = append(rels, toRelationship(el))
	}
	return rels
}

// Get looks a relationship up by id.
func (r *Relationships) Get(id string) (Relationship, bool) {
	if el := r.find(id); el != nil {
		return toRelationship(el), true
	}
	return Relationship{}, false
}

// FirstOfType returns the first relationship with the given type.
func (r *Relationships) FirstOfType(relType string) (Relationship, bool) {
	for _, rel := range r.All() {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Add appends a relationship and returns its newly allocated id.
func (r *Relationships) Add(relType, target, targetMode string) string {
	id := r.nextID()
	el := r.doc.Root().CreateElement("Relationship")
	el.CreateAttr("Id", id)
	el.CreateAttr("Type", relType)
	el.CreateAttr("Target", target)
	if targetMode != "" {
		el.CreateAttr("TargetMode", targetMode)
	}
	return id
}

// Remove deletes the relationship with the given id.
func (r *Relationships) Remove(id string) {
	if el := r.find(id); el != nil {
		r.doc.Root().RemoveChild(el)
	}
}

// Resolve returns the absolute part name targeted by an internal relationship.
func (r *Relationships) Resolve(rel Relationship) string {
	return resolveTarget(r.source, rel.Target)
}

func (r *Relationships) find(id string) *etree.Element {
	for _, el := range r.doc.Root().SelectElements("Relationship") {
		if el.SelectAttrValue("Id", "") == id {
			return el
		}
	}
	return nil
}

func (r *Relationships) nextID() string {
	highest := 0
	for _, el := range r.doc.Root().SelectElements("Relationship") {
		id := el.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("rId%d", highest+1)
}

func (r *Relationships) save(pkg *Package) {
	pkg.PutXML(relsPartName(r.source), r.doc)
}

func toRelationship(el *etree.Element) Relationship {
	return Relationship{
		ID:         el.SelectAttrValue("Id", ""),
		Type:       el.SelectAttrValue("Type", ""),
		Target:     el.SelectAttrValue("Target", ""),
		TargetMode: el.SelectAttrValue("TargetMode", ""),
	}
}
