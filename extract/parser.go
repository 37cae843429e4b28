package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/drummonds/goslides/pptx"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger = slog.Default()

// Bullet is one extracted line of slide text. IsBold and IndentLevel are always
// false and zero: run styling and paragraph levels are not inspected.
type Bullet struct {
	Text        string `json:"text"`
	IsBold      bool   `json:"is_bold"`
	IndentLevel int    `json:"indent_level"`
}

// Slide is the text content of one slide.
type Slide struct {
	SlideNumber int      `json:"slide_number"`
	Title       string   `json:"title"`
	Bullets     []Bullet `json:"bullets"`
}

// ParseFile opens a presentation and extracts the text of every slide.
// Any failure to read the document is returned without a partial result.
func ParseFile(filename string) ([]Slide, error) {
	pres, err := pptx.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read presentation: %w", err)
	}
	return ParsePresentation(pres), nil
}

// ParsePresentation builds one Slide per input slide, numbered from 1 in document order.
func ParsePresentation(pres *pptx.Presentation) []Slide {
	slides := make([]Slide, 0, pres.SlideCount())
	for i, slide := range pres.Slides {
		parsed := parseSlide(slide)
		parsed.SlideNumber = i + 1
		Logger.Debug("Parsed slide", "slide", parsed.SlideNumber, "title", parsed.Title, "bullets", len(parsed.Bullets))
		slides = append(slides, parsed)
	}
	return slides
}

func parseSlide(slide *pptx.Slide) Slide {
	title := ""
	if shape, ok := slide.TitleShape(); ok {
		title = strings.TrimSpace(shape.Text)
	}

	seen := map[string]struct{}{}
	if title != "" {
		seen[title] = struct{}{}
	}

	bullets := []Bullet{}
	for _, shape := range slide.Shapes {
		for text := range ShapeTexts(shape) {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			bullets = append(bullets, Bullet{Text: text})
		}
	}

	return Slide{Title: title, Bullets: bullets}
}
