package pptx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	contentTypesPart = "[Content_Types].xml"

	ContentTypeSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	// ContentTypePresentation is the MIME type of a .pptx file.
	ContentTypePresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type contentTypes struct {
	doc *etree.Document
}

func loadContentTypes(pkg *Package) (*contentTypes, error) {
	doc, err := pkg.XML(contentTypesPart)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%s has no root", contentTypesPart)
	}
	return &contentTypes{doc: doc}, nil
}

func (ct *contentTypes) addOverride(part, contentType string) {
	partName := "/" + part
	for _, el := range ct.doc.Root().SelectElements("Override") {
		if el.SelectAttrValue("PartName", "") == partName {
			el.CreateAttr("ContentType", contentType)
			return
		}
	}
	el := ct.doc.Root().CreateElement("Override")
	el.CreateAttr("PartName", partName)
	el.CreateAttr("ContentType", contentType)
}

func (ct *contentTypes) removeOverride(part string) {
	partName := "/" + part
	for _, el := range ct.doc.Root().SelectElements("Override") {
		if el.SelectAttrValue("PartName", "") == partName {
			ct.doc.Root().RemoveChild(el)
			return
		}
	}
}

// ensureDefault registers a content type for a file extension unless one is
// already present. Defaults must precede overrides in the part.
func (ct *contentTypes) ensureDefault(ext, contentType string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, el := range ct.doc.Root().SelectElements("Default") {
		if strings.EqualFold(el.SelectAttrValue("Extension", ""), ext) {
			return
		}
	}
	el := etree.NewElement("Default")
	el.CreateAttr("Extension", ext)
	el.CreateAttr("ContentType", contentType)
	ct.doc.Root().InsertChildAt(0, el)
}
