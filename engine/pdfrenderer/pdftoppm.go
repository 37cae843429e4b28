package pdfrenderer

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/drummonds/goslides/engine/external"
)

// DefaultTimeout bounds a single pdftoppm run when Options.Timeout is unset.
const DefaultTimeout = 120 * time.Second

// PdftoppmRasterizer shells out to the poppler pdftoppm tool.
type PdftoppmRasterizer struct {
	candidates []string
	timeout    time.Duration
	dpi        int
	width      int
}

// NewPdftoppmRasterizer creates a rasterizer backed by the pdftoppm command
func NewPdftoppmRasterizer(opts Options) *PdftoppmRasterizer {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = []string{"pdftoppm"}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PdftoppmRasterizer{candidates: candidates, timeout: timeout, dpi: opts.DPI, width: opts.Width}
}

// Rasterize runs pdftoppm -png and collects the slide-N.png files it wrote
func (r *PdftoppmRasterizer) Rasterize(pdfPath, outDir string) ([]string, error) {
	tool, err := external.Find(r.candidates...)
	if err != nil {
		return nil, err
	}

	args := []string{"-png"}
	if r.dpi > 0 {
		args = append(args, "-r", strconv.Itoa(r.dpi))
	}
	if r.width > 0 {
		args = append(args, "-scale-to-x", strconv.Itoa(r.width), "-scale-to-y", "-1")
	}
	args = append(args, pdfPath, filepath.Join(outDir, PagePrefix))

	if _, err := external.Run(r.timeout, tool, args...); err != nil {
		return nil, err
	}
	return CollectPages(outDir)
}

func (r *PdftoppmRasterizer) Name() string { return "pdftoppm" }

func (r *PdftoppmRasterizer) Close() error { return nil }
