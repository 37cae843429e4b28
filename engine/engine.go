package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/drummonds/goslides/config"
	"github.com/drummonds/goslides/engine/external"
	"github.com/drummonds/goslides/engine/pdfrenderer"
	"github.com/ledongthuc/pdf"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger = slog.Default()

// ConversionError describes a failed render step; Kind tells which step and why.
type ConversionError = external.Error

// DefaultTimeout is the wall-clock limit for each external process.
const DefaultTimeout = 120 * time.Second

// SlideRenderer turns a presentation into one PNG per slide: the office converter writes a
// PDF, then the rasterizer renders its pages.
type SlideRenderer struct {
	ConverterCandidates []string
	Timeout             time.Duration
	Rasterizer          pdfrenderer.Rasterizer
}

// NewSlideRenderer builds a renderer from the server settings
func NewSlideRenderer(serverConfig config.ServerConfig) (*SlideRenderer, error) {
	timeout := serverConfig.ConversionTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rasterizer, err := pdfrenderer.NewRasterizer(pdfrenderer.Options{
		Backend:    serverConfig.Rasterizer,
		Candidates: serverConfig.RasterizerCandidates,
		Timeout:    timeout,
		DPI:        serverConfig.RenderDPI,
		Width:      serverConfig.ImageWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create rasterizer: %w", err)
	}
	candidates := serverConfig.ConverterCandidates
	if len(candidates) == 0 {
		candidates = []string{"libreoffice", "soffice"}
	}
	return &SlideRenderer{ConverterCandidates: candidates, Timeout: timeout, Rasterizer: rasterizer}, nil
}

// Close releases the rasterizer
func (renderer *SlideRenderer) Close() error {
	if renderer.Rasterizer == nil {
		return nil
	}
	return renderer.Rasterizer.Close()
}

// RenderSlides renders every slide of inputPath into outDir and returns the image paths sorted
// by filename. Failures are *ConversionError values except for unexpected filesystem errors.
// outDir should be empty: any slide*.png already in it is collected too.
func (renderer *SlideRenderer) RenderSlides(inputPath, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	// The intermediate PDF lives beside outDir so only slide images end up in it
	pdfDir, err := os.MkdirTemp(filepath.Dir(outDir), ".goslides-pdf-")
	if err != nil {
		return nil, fmt.Errorf("unable to create conversion directory: %w", err)
	}
	defer os.RemoveAll(pdfDir)

	pdfPath, err := renderer.convertToPDF(inputPath, pdfDir)
	if err != nil {
		return nil, err
	}

	pageCount, err := pdfPageCount(pdfPath)
	if err != nil {
		Logger.Warn("Unable to read page count of intermediate PDF", "pdf", pdfPath, "error", err)
	} else {
		Logger.Debug("Intermediate PDF created", "pdf", pdfPath, "pages", pageCount)
	}

	if renderer.Rasterizer == nil {
		return nil, fmt.Errorf("no rasterizer configured")
	}
	if _, err := renderer.Rasterizer.Rasterize(pdfPath, outDir); err != nil {
		return nil, err
	}

	// Collect from disk so every backend is held to the same naming and ordering
	images, err := pdfrenderer.CollectPages(outDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read rendered images: %w", err)
	}
	if len(images) == 0 {
		return nil, external.NoOutputError(fmt.Sprintf("%s produced no images", renderer.Rasterizer.Name()))
	}
	if pageCount > 0 && len(images) != pageCount {
		Logger.Warn("Rendered image count differs from PDF page count", "images", len(images), "pages", pageCount)
	}

	Logger.Info("Rendered slides", "file", filepath.Base(inputPath), "images", len(images), "rasterizer", renderer.Rasterizer.Name())
	return images, nil
}

// convertToPDF runs the office converter and returns the path of the PDF it wrote.
func (renderer *SlideRenderer) convertToPDF(inputPath, outDir string) (string, error) {
	converter, err := external.Find(renderer.ConverterCandidates...)
	if err != nil {
		return "", err
	}

	Logger.Debug("Converting presentation to PDF", "converter", converter, "file", inputPath)
	if _, err := external.Run(renderer.Timeout, converter,
		"--headless", "--convert-to", "pdf", inputPath, "--outdir", outDir); err != nil {
		return "", err
	}

	return locatePDF(inputPath, outDir)
}

// locatePDF checks for <input-stem>.pdf first and falls back to any PDF in outDir.
func locatePDF(inputPath, outDir string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	expected := filepath.Join(outDir, stem+".pdf")
	if info, err := os.Stat(expected); err == nil && !info.IsDir() {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "*.pdf"))
	if err != nil {
		return "", fmt.Errorf("unable to scan for PDF output: %w", err)
	}
	sort.Strings(matches)
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && !info.IsDir() {
			Logger.Debug("Converter output did not match the expected name", "expected", expected, "found", match)
			return match, nil
		}
	}
	return "", external.NoOutputError("PDF conversion produced no output file")
}

// pdfPageCount reads the number of pages in a PDF
func pdfPageCount(pdfPath string) (count int, err error) {
	// The PDF reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	pdfFile, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, err
	}
	defer pdfFile.Close()
	return reader.NumPage(), nil
}
