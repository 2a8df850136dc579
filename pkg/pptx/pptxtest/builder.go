// Package pptxtest builds small but structurally valid presentations for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// TextBox is a text shape; every paragraph is a list of runs.
type TextBox struct {
	Name       string
	Paragraphs [][]string
}

// Picture is an embedded image shape.
type Picture struct {
	Name string
	Data []byte
	// Embed, when set, is used as the r:embed id verbatim and no media part
	// or relationship is written.
	Embed string
}

// Group is a group shape of text boxes.
type Group struct {
	Name  string
	Boxes []TextBox
}

// Slide describes one slide. Shapes are emitted as text boxes, then groups,
// then a table, then pictures.
type Slide struct {
	Boxes    []TextBox
	Groups   []Group
	Table    [][]string
	Pictures []Picture
	Notes    string
}

// Box returns a text box with one single-run paragraph per argument.
func Box(name string, paragraphs ...string) TextBox {
	tb := TextBox{Name: name}
	for _, p := range paragraphs {
		tb.Paragraphs = append(tb.Paragraphs, []string{p})
	}
	return tb
}

// PNG encodes a solid w x h image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// WriteFile builds a presentation and stores it as dir/name.
func WriteFile(dir, name string, slides ...Slide) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(slides...), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Build returns the bytes of a .pptx containing the given slides, all bound to
// a single layout.
func Build(slides ...Slide) []byte {
	parts := map[string]string{}
	var order []string
	put := func(name, content string) {
		order = append(order, name)
		parts[name] = content
	}

	var overrides, presRels, sldIDs strings.Builder
	media := 0
	for i, s := range slides {
		n := i + 1
		fmt.Fprintf(&overrides, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n+1, n)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n+1)
		if s.Notes != "" {
			fmt.Fprintf(&overrides, `<Override PartName="/ppt/notesSlides/notesSlide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>`, n)
		}
	}

	put("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/><Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/><Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/><Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`+overrides.String()+`</Types>`)

	put("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/></Relationships>`)

	put("docProps/app.xml", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>pptxtest</Application><Slides>%d</Slides></Properties>`, len(slides)))

	put("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation `+namespaces+`><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)

	put("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`+presRels.String()+`</Relationships>`)

	put("ppt/slideMasters/slideMaster1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster `+namespaces+`><p:cSld><p:spTree>`+groupHeader(1, "")+`</p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`)
	put("ppt/slideMasters/_rels/slideMaster1.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`)

	put("ppt/slideLayouts/slideLayout1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout `+namespaces+` type="blank"><p:cSld name="Blank"><p:spTree>`+groupHeader(1, "")+`</p:spTree></p:cSld></p:sldLayout>`)
	put("ppt/slideLayouts/_rels/slideLayout1.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`)

	for i, s := range slides {
		n := i + 1
		var tree, rels strings.Builder
		rels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)

		id := 2
		for _, box := range s.Boxes {
			tree.WriteString(textBox(id, box))
			id++
		}
		for _, g := range s.Groups {
			tree.WriteString(`<p:grpSp>` + groupHeader(id, g.Name))
			id++
			for _, box := range g.Boxes {
				tree.WriteString(textBox(id, box))
				id++
			}
			tree.WriteString(`</p:grpSp>`)
		}
		if len(s.Table) > 0 {
			tree.WriteString(table(id, s.Table))
			id++
		}
		relID := 2
		for _, pic := range s.Pictures {
			if pic.Embed != "" {
				tree.WriteString(picture(id, pic.Name, pic.Embed))
				id++
				continue
			}
			media++
			name := fmt.Sprintf("ppt/media/image%d.png", media)
			order = append(order, name)
			parts[name] = string(pic.Data)
			fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.png"/>`, relID, media)
			tree.WriteString(picture(id, pic.Name, fmt.Sprintf("rId%d", relID)))
			id++
			relID++
		}
		if s.Notes != "" {
			fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide" Target="../notesSlides/notesSlide%d.xml"/>`, relID, n)
			put(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes `+namespaces+`><p:cSld><p:spTree>`+groupHeader(1, "")+textBox(2, Box("Notes", s.Notes))+`</p:spTree></p:cSld></p:notes>`)
			put(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="../slides/slide%d.xml"/></Relationships>`, n))
		}

		put(fmt.Sprintf("ppt/slides/slide%d.xml", n), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld `+namespaces+`><p:cSld><p:spTree>`+groupHeader(1, "")+tree.String()+`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
		put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels.String()+`</Relationships>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

const namespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

func picture(id int, name, embed string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="914400" cy="914400"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, id, esc(name), esc(embed))
}

func groupHeader(id int, name string) string {
	return fmt.Sprintf(`<p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`, id, esc(name))
}

func textBox(id int, box TextBox) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="457200" y="457200"/><a:ext cx="4572000" cy="914400"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr/><a:lstStyle/>`, id, esc(box.Name))
	b.WriteString(paragraphs(box.Paragraphs))
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func table(id int, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/><p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr><p:xfrm><a:off x="0" y="0"/><a:ext cx="4572000" cy="914400"/></p:xfrm><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblGrid>`, id, id-1)
	if len(rows) > 0 {
		for range rows[0] {
			b.WriteString(`<a:gridCol w="1524000"/>`)
		}
	}
	b.WriteString(`</a:tblGrid>`)
	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>` + paragraphs([][]string{{cell}}) + `</a:txBody><a:tcPr/></a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	return b.String()
}

func paragraphs(ps [][]string) string {
	var b strings.Builder
	for _, runs := range ps {
		b.WriteString(`<a:p>`)
		for _, r := range runs {
			fmt.Fprintf(&b, `<a:r><a:rPr lang="es-AR" dirty="0"/><a:t>%s</a:t></a:r>`, esc(r))
		}
		b.WriteString(`<a:endParaRPr lang="es-AR"/></a:p>`)
	}
	return b.String()
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
