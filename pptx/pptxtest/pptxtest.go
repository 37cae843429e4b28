// Package pptxtest builds small in-memory .pptx packages for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const (
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsC   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	nsDgm = "http://schemas.openxmlformats.org/drawingml/2006/diagram"
	nsMC  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	nsPkg = "http://schemas.openxmlformats.org/package/2006/relationships"

	relSlide   = nsR + "/slide"
	relChart   = nsR + "/chart"
	relDiagram = nsR + "/diagramData"
)

// Slide describes one slide: its spTree children plus the chart and SmartArt parts
// they reference, keyed by relationship id.
type Slide struct {
	Shapes   []string
	Charts   map[string]string
	Diagrams map[string]string
}

// Build returns the bytes of a .pptx package containing the given slides in order.
func Build(slides ...Slide) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`</Types>`)
	write("_rels/.rels", rels(map[string]string{
		"rId1": nsR + "/officeDocument|ppt/presentation.xml",
	}))

	var sldIDs strings.Builder
	presRels := map[string]string{}
	for i := range slides {
		relID := fmt.Sprintf("rId%d", i+10)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 256+i, relID)
		presRels[relID] = fmt.Sprintf("%s|slides/slide%d.xml", relSlide, i+1)
	}
	write("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation xmlns:p="`+nsP+`" xmlns:a="`+nsA+`" xmlns:r="`+nsR+`">`+
		`<p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst>`+
		`<p:sldSz cx="9144000" cy="6858000"/>`+
		`</p:presentation>`)
	write("ppt/_rels/presentation.xml.rels", rels(presRels))

	for i, slide := range slides {
		n := i + 1
		write(fmt.Sprintf("ppt/slides/slide%d.xml", n), SlideXML(slide.Shapes...))

		slideRels := map[string]string{}
		for relID, part := range slide.Charts {
			name := fmt.Sprintf("chart%d_%s.xml", n, relID)
			write("ppt/charts/"+name, part)
			slideRels[relID] = relChart + "|../charts/" + name
		}
		for relID, part := range slide.Diagrams {
			name := fmt.Sprintf("data%d_%s.xml", n, relID)
			write("ppt/diagrams/"+name, part)
			slideRels[relID] = relDiagram + "|../diagrams/" + name
		}
		if len(slideRels) > 0 {
			write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), rels(slideRels))
		}
	}

	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteFile builds a package and writes it to dir/name, returning the full path.
func WriteFile(t testing.TB, dir, name string, slides ...Slide) string {
	t.Helper()
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, Build(slides...), 0644); err != nil {
		t.Fatalf("Failed to write test presentation: %v", err)
	}
	return filename
}

// rels renders a relationships part; values are "type|target".
func rels(entries map[string]string) string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Relationships xmlns="` + nsPkg + `">`)
	for _, id := range ids {
		relType, target, _ := strings.Cut(entries[id], "|")
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, id, relType, target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// SlideXML wraps shape elements into a complete slide part.
func SlideXML(shapes ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld xmlns:p="` + nsP + `" xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:mc="` + nsMC + `">` +
		`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld></p:sld>`
}

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func textBody(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, p := range paragraphs {
		b.WriteString(`<a:p><a:r><a:rPr lang="en-US"/><a:t>` + esc(p) + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody>`)
	return b.String()
}

// Title is a title placeholder.
func Title(id int, text string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Title %d"/><p:cNvSpPr/>`+
		`<p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/>%s</p:sp>`, id, id, textBody(text))
}

// Placeholder is a body placeholder with one paragraph per entry.
func Placeholder(id int, paragraphs ...string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Content %d"/><p:cNvSpPr/>`+
		`<p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>%s</p:sp>`, id, id, textBody(paragraphs...))
}

// TextBox is a plain text box with one paragraph per entry.
func TextBox(id int, paragraphs ...string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/>`+
		`<p:nvPr/></p:nvSpPr><p:spPr/>%s</p:sp>`, id, id, textBody(paragraphs...))
}

// Rect is an auto shape without a text body.
func Rect(id int) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:sp>`, id, id)
}

// Picture is an image shape.
func Picture(id int) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="rId99"/></p:blipFill><p:spPr/></p:pic>`, id, id)
}

// Group wraps child shapes into a group shape.
func Group(id int, children ...string) string {
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="Group %d"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`+
		`<p:grpSpPr/>%s</p:grpSp>`, id, id, strings.Join(children, ""))
}

// Table is a graphic frame holding a table with the given cell texts.
func Table(id int, rows [][]string) string {
	var b strings.Builder
	b.WriteString(`<a:tbl><a:tblPr/><a:tblGrid/>`)
	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
			if cell == "" {
				b.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
			} else {
				b.WriteString(`<a:p><a:r><a:t>` + esc(cell) + `</a:t></a:r></a:p>`)
			}
			b.WriteString(`</a:txBody><a:tcPr/></a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl>`)
	return graphicFrame(id, "Table", "http://schemas.openxmlformats.org/drawingml/2006/table", b.String())
}

// Chart is a graphic frame referencing a chart part by relationship id.
func Chart(id int, relID string) string {
	return graphicFrame(id, "Chart", nsC, `<c:chart xmlns:c="`+nsC+`" r:id="`+relID+`"/>`)
}

// SmartArt is a graphic frame referencing a diagram data part by relationship id.
func SmartArt(id int, relID string) string {
	return graphicFrame(id, "Diagram", nsDgm,
		`<dgm:relIds xmlns:dgm="`+nsDgm+`" r:dm="`+relID+`" r:lo="rId98" r:qs="rId97" r:cs="rId96"/>`)
}

func graphicFrame(id int, name, uri, content string) string {
	return fmt.Sprintf(`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s %d"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`+
		`<p:xfrm><a:off x="0" y="0"/><a:ext cx="100" cy="100"/></p:xfrm>`+
		`<a:graphic><a:graphicData uri="%s">%s</a:graphicData></a:graphic></p:graphicFrame>`, id, name, id, uri, content)
}

// ChartPart is a chart part. An empty title produces a chart without a c:title element.
func ChartPart(title string) string {
	titleXML := ""
	if title != "" {
		titleXML = `<c:title><c:tx><c:rich><a:bodyPr/><a:p><a:r><a:t>` + esc(title) +
			`</a:t></a:r></a:p></c:rich></c:tx><c:overlay val="0"/></c:title>`
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<c:chartSpace xmlns:c="` + nsC + `" xmlns:a="` + nsA + `" xmlns:r="` + nsR + `">` +
		`<c:chart>` + titleXML + `<c:autoTitleDeleted val="0"/><c:plotArea/></c:chart></c:chartSpace>`
}

// DiagramData is a SmartArt data part with one text point per entry.
func DiagramData(texts ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<dgm:dataModel xmlns:dgm="` + nsDgm + `" xmlns:a="` + nsA + `"><dgm:ptLst>`)
	b.WriteString(`<dgm:pt modelId="{0}" type="doc"><dgm:prSet/><dgm:spPr/></dgm:pt>`)
	for i, text := range texts {
		fmt.Fprintf(&b, `<dgm:pt modelId="{%d}"><dgm:prSet/><dgm:spPr/><dgm:t><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></dgm:t></dgm:pt>`, i+1, esc(text))
	}
	b.WriteString(`</dgm:ptLst><dgm:cxnLst/></dgm:dataModel>`)
	return b.String()
}

// AlternateContent wraps a choice and a fallback shape.
func AlternateContent(choice, fallback string) string {
	return `<mc:AlternateContent><mc:Choice Requires="p14">` + choice + `</mc:Choice>` +
		`<mc:Fallback>` + fallback + `</mc:Fallback></mc:AlternateContent>`
}
