package pptx

// ShapeKind is the closed set of shape variants the reader produces.
type ShapeKind int

const (
	// KindOther covers pictures, connectors, shapes without a text body and
	// anything else that carries no display text.
	KindOther ShapeKind = iota
	KindGroup
	KindTextFrame
	KindTable
	KindChart
	// KindGenericText is a graphic frame whose text lives in a separate part
	// (SmartArt diagrams).
	KindGenericText
)

func (k ShapeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindTextFrame:
		return "text_frame"
	case KindTable:
		return "table"
	case KindChart:
		return "chart"
	case KindGenericText:
		return "generic_text"
	default:
		return "other"
	}
}

// Shape is one visual element of a slide. Which fields are meaningful depends on Kind:
// Children for groups, Text for text frames and generic text, Rows for tables,
// ChartTitle/HasChartTitle for charts.
type Shape struct {
	Kind ShapeKind
	ID   int
	Name string

	// PlaceholderType is the p:ph type ("title", "ctrTitle", "body", ...).
	// Placeholders without an explicit type report "obj".
	PlaceholderType string
	IsPlaceholder   bool

	Text          string
	Children      []Shape
	Rows          [][]string
	ChartTitle    string
	HasChartTitle bool
}

// IsTitle reports whether the shape is a title placeholder.
func (s Shape) IsTitle() bool {
	return s.IsPlaceholder && (s.PlaceholderType == "title" || s.PlaceholderType == "ctrTitle")
}

// Slide is a single slide in presentation order.
type Slide struct {
	Index  int    // 0-based position in the slide list
	Part   string // zip path of the slide part
	Shapes []Shape
}

// TitleShape returns the first top-level title placeholder on the slide.
func (s *Slide) TitleShape() (Shape, bool) {
	for _, shape := range s.Shapes {
		if shape.IsTitle() {
			return shape, true
		}
	}
	return Shape{}, false
}

// Presentation is a read-only view of a .pptx document.
type Presentation struct {
	Slides []*Slide
}

// SlideCount returns the number of slides.
func (p *Presentation) SlideCount() int {
	return len(p.Slides)
}
