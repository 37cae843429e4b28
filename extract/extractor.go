// Package extract turns presentation shapes into slide titles and bullet text.
package extract

import (
	"iter"
	"strings"

	"github.com/drummonds/goslides/pptx"
)

// ShapeTexts yields the non-empty trimmed display texts found in a shape, in order.
// Groups are flattened depth-first, tables are read row-major and shapes without text
// yield nothing.
func ShapeTexts(shape pptx.Shape) iter.Seq[string] {
	return func(yield func(string) bool) {
		walkShape(shape, yield)
	}
}

// walkShape reports false once the consumer has stopped iterating.
func walkShape(shape pptx.Shape, yield func(string) bool) bool {
	switch shape.Kind {
	case pptx.KindGroup:
		for _, child := range shape.Children {
			if !walkShape(child, yield) {
				return false
			}
		}
		return true
	case pptx.KindTextFrame, pptx.KindGenericText:
		return emit(shape.Text, yield)
	case pptx.KindTable:
		for _, row := range shape.Rows {
			for _, cell := range row {
				if !emit(cell, yield) {
					return false
				}
			}
		}
		return true
	case pptx.KindChart:
		if !shape.HasChartTitle {
			return true
		}
		return emit(shape.ChartTitle, yield)
	case pptx.KindOther:
		return true
	default:
		return true
	}
}

func emit(text string, yield func(string) bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	return yield(text)
}
