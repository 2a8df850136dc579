package pptx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Shape wraps one drawing object of a slide shape tree (p:sp, p:pic, p:grpSp,
// p:graphicFrame, p:cxnSp).
type Shape struct {
	el *etree.Element
}

// Element exposes the underlying XML element.
func (sh *Shape) Element() *etree.Element {
	return sh.el
}

// Kind is the local element name, e.g. "sp" or "pic".
func (sh *Shape) Kind() string {
	return sh.el.Tag
}

func (sh *Shape) IsGroup() bool {
	return sh.el.Tag == "grpSp"
}

// ID returns the drawing object id, or 0 when it has none.
func (sh *Shape) ID() int {
	if nv := sh.nonVisual(); nv != nil {
		id, _ := strconv.Atoi(nv.SelectAttrValue("id", "0"))
		return id
	}
	return 0
}

func (sh *Shape) Name() string {
	if nv := sh.nonVisual(); nv != nil {
		return nv.SelectAttrValue("name", "")
	}
	return ""
}

func (sh *Shape) nonVisual() *etree.Element {
	return sh.el.FindElement("./*/p:cNvPr")
}

// HasTextFrame reports whether the shape carries text, either its own text
// body or the cells of a table.
func (sh *Shape) HasTextFrame() bool {
	return len(sh.textBodies()) > 0
}

// Text returns the shape text. Paragraphs are separated by "\n" and line
// breaks inside a paragraph are rendered as "\v".
func (sh *Shape) Text() string {
	var paragraphs []string
	for _, body := range sh.textBodies() {
		for _, p := range body.SelectElements("a:p") {
			paragraphs = append(paragraphs, paragraphText(p))
		}
	}
	return strings.Join(paragraphs, "\n")
}

// ReplaceText replaces every occurrence of old with value and returns the
// number of replacements. Occurrences split over several runs of the same
// paragraph are merged into the first run, keeping its formatting. Newlines in
// value become line breaks.
func (sh *Shape) ReplaceText(old, value string) int {
	if old == "" {
		return 0
	}
	value = strings.ReplaceAll(value, "\r\n", "\n")

	count := 0
	for _, body := range sh.textBodies() {
		for _, p := range body.SelectElements("a:p") {
			count += replaceInParagraph(p, old, value)
		}
	}
	return count
}

func (sh *Shape) textBodies() []*etree.Element {
	if body := sh.el.SelectElement("p:txBody"); body != nil {
		return []*etree.Element{body}
	}
	if sh.el.Tag == "graphicFrame" {
		return sh.el.FindElements(".//a:tc/a:txBody")
	}
	return nil
}

func paragraphText(p *etree.Element) string {
	var b strings.Builder
	for _, child := range p.ChildElements() {
		switch child.Tag {
		case "r", "fld":
			if t := child.SelectElement("a:t"); t != nil {
				b.WriteString(t.Text())
			}
		case "br":
			b.WriteString("\v")
		}
	}
	return b.String()
}

func replaceInParagraph(p *etree.Element, old, value string) int {
	count := 0
	var touched []*etree.Element
	for _, segment := range runSegments(p) {
		texts := make([]string, len(segment))
		var joined strings.Builder
		for i, run := range segment {
			texts[i] = run.SelectElement("a:t").Text()
			joined.WriteString(texts[i])
		}
		n := strings.Count(joined.String(), old)
		if n == 0 {
			continue
		}
		count += n

		if !crossesRuns(texts, old) {
			for i, run := range segment {
				if strings.Contains(texts[i], old) {
					run.SelectElement("a:t").SetText(strings.ReplaceAll(texts[i], old, value))
					touched = append(touched, run)
				}
			}
			continue
		}

		first := segment[0]
		first.SelectElement("a:t").SetText(strings.ReplaceAll(joined.String(), old, value))
		for _, run := range segment[1:] {
			p.RemoveChild(run)
		}
		touched = append(touched, first)
	}

	for _, run := range touched {
		if run.Parent() == p {
			splitLines(p, run)
		}
	}
	return count
}

// crossesRuns reports whether any match of old in the concatenated texts
// spans more than one run.
func crossesRuns(texts []string, old string) bool {
	ends := make([]int, len(texts))
	total := 0
	for i, t := range texts {
		total += len(t)
		ends[i] = total
	}
	joined := strings.Join(texts, "")

	run := 0
	for at := 0; ; {
		i := strings.Index(joined[at:], old)
		if i < 0 {
			return false
		}
		start, end := at+i, at+i+len(old)
		for ends[run] <= start {
			run++
		}
		if end > ends[run] {
			return true
		}
		at = end
	}
}

// runSegments groups consecutive text runs; line breaks and fields end a group.
func runSegments(p *etree.Element) [][]*etree.Element {
	var segments [][]*etree.Element
	var current []*etree.Element
	flush := func() {
		if len(current) > 0 {
			segments = append(segments, current)
			current = nil
		}
	}
	for _, child := range p.ChildElements() {
		switch child.Tag {
		case "r":
			if child.SelectElement("a:t") != nil {
				current = append(current, child)
			}
		case "br", "fld":
			flush()
		}
	}
	flush()
	return segments
}

// splitLines turns a run whose text contains newlines into runs separated by
// a:br elements that share the run properties.
func splitLines(p, run *etree.Element) {
	t := run.SelectElement("a:t")
	lines := strings.Split(t.Text(), "\n")
	if len(lines) < 2 {
		return
	}
	t.SetText(lines[0])

	at := run.Index() + 1
	for _, line := range lines[1:] {
		br := etree.NewElement("a:br")
		if rPr := run.SelectElement("a:rPr"); rPr != nil {
			br.AddChild(rPr.Copy())
		}
		p.InsertChildAt(at, br)
		at++

		next := run.Copy()
		next.SelectElement("a:t").SetText(line)
		p.InsertChildAt(at, next)
		at++
	}
}
