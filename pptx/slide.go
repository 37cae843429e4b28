package pptx

import (
	"fmt"
	"strconv"
	"strings"
)

// slideReader decodes one slide part and the chart and diagram parts it references.
type slideReader struct {
	pkg  *pkgReader
	part string
	rels map[string]relationship
}

func (p *pkgReader) readSlide(part string, index int) (*Slide, error) {
	root, err := p.decodePart(part)
	if err != nil {
		return nil, err
	}
	if root.local() != "sld" {
		return nil, fmt.Errorf("%s is not a slide part", part)
	}
	rels, err := p.readRels(part)
	if err != nil {
		return nil, err
	}

	sr := &slideReader{pkg: p, part: part, rels: rels}
	return &Slide{
		Index:  index,
		Part:   part,
		Shapes: sr.readShapes(root.path("cSld", "spTree")),
	}, nil
}

// readShapes converts the shape children of an spTree or grpSp, in document order.
func (sr *slideReader) readShapes(container *node) []Shape {
	if container == nil {
		return nil
	}
	var shapes []Shape
	for i := range container.Nodes {
		el := &container.Nodes[i]
		switch el.local() {
		case "sp":
			shapes = append(shapes, sr.readAutoShape(el))
		case "grpSp":
			shape := shapeHeader(el.child("nvGrpSpPr"))
			shape.Kind = KindGroup
			shape.Children = sr.readShapes(el)
			shapes = append(shapes, shape)
		case "graphicFrame":
			shapes = append(shapes, sr.readGraphicFrame(el))
		case "pic":
			shapes = append(shapes, otherShape(el.child("nvPicPr")))
		case "cxnSp":
			shapes = append(shapes, otherShape(el.child("nvCxnSpPr")))
		case "contentPart":
			shapes = append(shapes, Shape{Kind: KindOther})
		case "AlternateContent":
			shapes = append(shapes, sr.readAlternateContent(el)...)
		}
	}
	return shapes
}

// readAlternateContent prefers the first mc:Choice that yields shapes, then mc:Fallback.
func (sr *slideReader) readAlternateContent(el *node) []Shape {
	for _, choice := range el.children("Choice") {
		if shapes := sr.readShapes(choice); len(shapes) > 0 {
			return shapes
		}
	}
	return sr.readShapes(el.child("Fallback"))
}

func (sr *slideReader) readAutoShape(el *node) Shape {
	shape := shapeHeader(el.child("nvSpPr"))
	body := el.child("txBody")
	if body == nil {
		shape.Kind = KindOther
		return shape
	}
	shape.Kind = KindTextFrame
	shape.Text = textBodyText(body)
	return shape
}

func (sr *slideReader) readGraphicFrame(el *node) Shape {
	shape := shapeHeader(el.child("nvGraphicFramePr"))
	data := el.path("graphic", "graphicData")
	if data == nil {
		shape.Kind = KindOther
		return shape
	}

	if tbl := data.child("tbl"); tbl != nil {
		shape.Kind = KindTable
		for _, tr := range tbl.children("tr") {
			var row []string
			for _, tc := range tr.children("tc") {
				row = append(row, textBodyText(tc.child("txBody")))
			}
			shape.Rows = append(shape.Rows, row)
		}
		return shape
	}

	if chart := data.child("chart"); chart != nil {
		shape.Kind = KindChart
		shape.ChartTitle, shape.HasChartTitle = sr.chartTitle(chart.relAttr("id"))
		return shape
	}

	if relIDs := data.child("relIds"); relIDs != nil {
		shape.Kind = KindGenericText
		shape.Text = sr.diagramText(relIDs.relAttr("dm"))
		return shape
	}

	shape.Kind = KindOther
	return shape
}

// relatedPart loads the part behind a slide relationship id. External targets are ignored.
func (sr *slideReader) relatedPart(relID string) *node {
	rel, ok := sr.rels[relID]
	if !ok || rel.TargetMode == "External" {
		return nil
	}
	root, err := sr.pkg.decodePart(resolveTarget(sr.part, rel.Target))
	if err != nil {
		return nil
	}
	return root
}

// chartTitle reads c:chartSpace/c:chart/c:title. A title without rich text (an automatic
// title) reports HasChartTitle with empty text.
func (sr *slideReader) chartTitle(relID string) (string, bool) {
	root := sr.relatedPart(relID)
	title := root.path("chart", "title")
	if title == nil {
		return "", false
	}
	return textBodyText(title.path("tx", "rich")), true
}

// diagramText joins the non-empty point texts of a SmartArt data part.
func (sr *slideReader) diagramText(relID string) string {
	root := sr.relatedPart(relID)
	var lines []string
	for _, pt := range root.path("ptLst").children("pt") {
		if text := strings.TrimSpace(textBodyText(pt.child("t"))); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func shapeHeader(nvPr *node) Shape {
	var shape Shape
	if cNvPr := nvPr.child("cNvPr"); cNvPr != nil {
		if v, ok := cNvPr.attr("id"); ok {
			shape.ID, _ = strconv.Atoi(v)
		}
		shape.Name, _ = cNvPr.attr("name")
	}
	if ph := nvPr.path("nvPr", "ph"); ph != nil {
		shape.IsPlaceholder = true
		shape.PlaceholderType = "obj"
		if v, ok := ph.attr("type"); ok {
			shape.PlaceholderType = v
		}
	}
	return shape
}

func otherShape(nvPr *node) Shape {
	shape := shapeHeader(nvPr)
	shape.Kind = KindOther
	return shape
}

// textBodyText flattens a DrawingML text body: paragraphs are joined with "\n" and
// line breaks inside a paragraph become "\v".
func textBodyText(body *node) string {
	if body == nil {
		return ""
	}
	paragraphs := body.children("p")
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, paragraphText(p))
	}
	return strings.Join(lines, "\n")
}

func paragraphText(p *node) string {
	var b strings.Builder
	for i := range p.Nodes {
		el := &p.Nodes[i]
		switch el.local() {
		case "r", "fld":
			if t := el.child("t"); t != nil {
				b.WriteString(t.Content)
			}
		case "br":
			b.WriteString("\v")
		}
	}
	return b.String()
}
