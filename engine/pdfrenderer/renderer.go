package pdfrenderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// PagePrefix is the fixed filename prefix of rasterized pages, so that pages sort by filename.
const PagePrefix = "slide"

// Rasterizer turns every page of a PDF into one PNG file
type Rasterizer interface {
	// Rasterize writes PagePrefix-N.png files into outDir and returns their paths in page order
	Rasterize(pdfPath, outDir string) ([]string, error)

	// Name identifies the backend in logs and health output
	Name() string

	// Close cleans up any resources used by the rasterizer
	Close() error
}

// Options configures a rasterizer backend.
type Options struct {
	Backend    string        // pdftoppm, fitz or pdfium
	Candidates []string      // program names tried on PATH for pdftoppm
	Timeout    time.Duration // wall-clock limit for the pdftoppm process
	DPI        int           // 0 keeps the backend default
	Width      int           // resize pages to this width in pixels, 0 keeps the rendered size
}

// NewRasterizer creates the rasterizer selected by opts.Backend
func NewRasterizer(opts Options) (Rasterizer, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "pdftoppm":
		return NewPdftoppmRasterizer(opts), nil
	case "fitz":
		return NewFitzRasterizer(opts), nil
	case "pdfium":
		return NewPDFiumRasterizer(opts)
	default:
		return nil, fmt.Errorf("unknown rasterizer backend %q", opts.Backend)
	}
}

// CollectPages returns the rasterized page files in outDir sorted by filename.
func CollectPages(outDir string) ([]string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var pages []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, PagePrefix) || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		pages = append(pages, filepath.Join(outDir, name))
	}
	sort.Strings(pages)
	return pages, nil
}

// pageFileName mirrors pdftoppm naming: the page number is zero padded to the digit count
// of the last page.
func pageFileName(page, total int) string {
	digits := len(strconv.Itoa(total))
	return fmt.Sprintf("%s-%0*d.png", PagePrefix, digits, page)
}

// writePages encodes in-process renders as PNG files, resizing them when width is set.
func writePages(images []image.Image, outDir string, width int) ([]string, error) {
	paths := make([]string, 0, len(images))
	for i, img := range images {
		if width > 0 && img.Bounds().Dx() != width {
			img = imaging.Resize(img, width, 0, imaging.Lanczos)
		}
		path := filepath.Join(outDir, pageFileName(i+1, len(images)))
		if err := writePNG(path, img); err != nil {
			return nil, fmt.Errorf("unable to write page %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
