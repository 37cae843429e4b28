package pdfrenderer

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// defaultPDFiumDPI is used when no DPI is configured.
const defaultPDFiumDPI = 150

// PDFiumRasterizer renders PDF pages using go-pdfium with WebAssembly (pure Go, no CGo).
// Each Rasterize call borrows its own instance from the pool, so concurrent requests never
// share one.
type PDFiumRasterizer struct {
	pool  pdfium.Pool
	dpi   int
	width int
	mu    sync.Mutex
}

// NewPDFiumRasterizer initializes the WebAssembly worker pool
func NewPDFiumRasterizer(opts Options) (*PDFiumRasterizer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = defaultPDFiumDPI
	}
	return &PDFiumRasterizer{pool: pool, dpi: dpi, width: opts.Width}, nil
}

// Rasterize converts all pages of a PDF file to PNG files using go-pdfium WebAssembly
func (r *PDFiumRasterizer) Rasterize(pdfPath, outDir string) ([]string, error) {
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}

	r.mu.Lock()
	pool := r.pool
	r.mu.Unlock()
	if pool == nil {
		return nil, fmt.Errorf("PDFium rasterizer is closed")
	}

	instance, err := pool.GetInstance(30 * time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	numPages := pageCountResp.PageCount
	images := make([]image.Image, 0, numPages)
	for pageIndex := 0; pageIndex < numPages; pageIndex++ {
		pageRender, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{
			DPI: r.dpi,
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{
					Document: doc.Document,
					Index:    pageIndex,
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", pageIndex+1, err)
		}

		// The render buffer is released by Cleanup, so keep a copy
		images = append(images, cloneImage(pageRender.Result.Image))
		pageRender.Cleanup()
	}

	return writePages(images, outDir, r.width)
}

func (r *PDFiumRasterizer) Name() string { return "pdfium" }

// Close cleans up resources used by the PDFium rasterizer
func (r *PDFiumRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	return nil
}

func cloneImage(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
