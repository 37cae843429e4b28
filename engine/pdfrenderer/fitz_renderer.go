package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer renders PDF pages in-process using go-fitz (MuPDF)
type FitzRasterizer struct {
	dpi   int
	width int
}

// NewFitzRasterizer creates a new Fitz-based rasterizer
func NewFitzRasterizer(opts Options) *FitzRasterizer {
	return &FitzRasterizer{dpi: opts.DPI, width: opts.Width}
}

// Rasterize converts all pages of a PDF file to PNG files using go-fitz
func (r *FitzRasterizer) Rasterize(pdfPath, outDir string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	images := make([]image.Image, 0, numPages)
	for pageNum := 0; pageNum < numPages; pageNum++ {
		var img image.Image
		if r.dpi > 0 {
			img, err = doc.ImageDPI(pageNum, float64(r.dpi))
		} else {
			img, err = doc.Image(pageNum)
		}
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", pageNum+1, err)
		}
		images = append(images, img)
	}

	return writePages(images, outDir, r.width)
}

func (r *FitzRasterizer) Name() string { return "fitz" }

// Close is a no-op, the document is closed per render
func (r *FitzRasterizer) Close() error {
	return nil
}
