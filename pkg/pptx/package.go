package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/beevik/etree"
)

// Package is an in-memory OPC container: the zip parts of a presentation.
// Parts that were parsed as XML are kept as documents and serialized on write.
type Package struct {
	order []string
	raw   map[string][]byte
	docs  map[string]*etree.Document
}

// ReadPackage loads every part of the zip archive into memory.
func ReadPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open package archive: %w", err)
	}

	pkg := &Package{
		raw:  make(map[string][]byte, len(zr.File)),
		docs: make(map[string]*etree.Document),
	}
	for _, file := range zr.File {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", file.Name, err)
		}
		pkg.order = append(pkg.order, file.Name)
		pkg.raw[file.Name] = content
	}
	return pkg, nil
}

// Has reports whether the named part exists.
func (p *Package) Has(name string) bool {
	if _, ok := p.docs[name]; ok {
		return true
	}
	_, ok := p.raw[name]
	return ok
}

// XML returns the parsed document of a part, parsing it on first access.
// Later edits to the returned document are persisted on Write.
func (p *Package) XML(name string) (*etree.Document, error) {
	if doc, ok := p.docs[name]; ok {
		return doc, nil
	}
	content, ok := p.raw[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("failed to parse part %s: %w", name, err)
	}
	p.docs[name] = doc
	delete(p.raw, name)
	return doc, nil
}

// PutXML stores a document under name, replacing any previous content.
func (p *Package) PutXML(name string, doc *etree.Document) {
	p.track(name)
	delete(p.raw, name)
	p.docs[name] = doc
}

// Put stores raw bytes under name, replacing any previous content.
func (p *Package) Put(name string, content []byte) {
	p.track(name)
	delete(p.docs, name)
	p.raw[name] = content
}

// Delete removes a part. Missing parts are ignored.
func (p *Package) Delete(name string) {
	delete(p.raw, name)
	delete(p.docs, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// NextPartName returns the first unused name of the form <prefix><n><ext>,
// counting from 1.
func (p *Package) NextPartName(prefix, ext string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%d%s", prefix, n, ext)
		if !p.Has(name) {
			return name
		}
	}
}

// Write serializes every part into a new zip archive.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, name := range p.order {
		content, err := p.bytes(name)
		if err != nil {
			return err
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to create part %s: %w", name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize package archive: %w", err)
	}
	return nil
}

func (p *Package) bytes(name string) ([]byte, error) {
	if doc, ok := p.docs[name]; ok {
		var buf bytes.Buffer
		if _, err := doc.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("failed to serialize part %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return p.raw[name], nil
}

func (p *Package) track(name string) {
	if !p.Has(name) {
		p.order = append(p.order, name)
	}
}

// resolveTarget turns a relationship target relative to the source part into
// an absolute part name without a leading slash.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget is the inverse of resolveTarget.
func relativeTarget(source, part string) string {
	from := strings.Split(path.Dir(source), "/")
	to := strings.Split(part, "/")
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var b strings.Builder
	for j := i; j < len(from); j++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(to[i:], "/"))
	return b.String()
}

// relsPartName returns the relationships part belonging to a source part,
// e.g. ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPartName(source string) string {
	if source == "" {
		return "_rels/.rels"
	}
	return path.Join(path.Dir(source), "_rels", path.Base(source)+".rels")
}
