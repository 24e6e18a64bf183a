// Package ocr drives the external tesseract and pdftoppm binaries.
package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cardiolens/cardiolens-backend/pkg/config"
)

// Engine turns images into text and PDFs into page images.
type Engine struct {
	runner Runner
	cfg    config.OCRConfig
}

// NewEngine creates an engine. Zero-valued config fields fall back to the
// stock binary names, English and 200 DPI.
func NewEngine(runner Runner, cfg config.OCRConfig) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Engine{runner: runner, cfg: cfg}
}

// Preprocess reports whether images should be binarized before OCR
func (e *Engine) Preprocess() bool {
	return e.cfg.Preprocess
}

// ImageText runs tesseract on one image file and returns its stdout.
func (e *Engine) ImageText(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D]
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w%s", err, stderrSuffix(errb))
	}
	return string(out), nil
}

var pageNumber = regexp.MustCompile(`-(\d+)\.jpg$`)

// RasterizePDF renders every page of pdfPath to a JPEG inside outDir and
// returns the page files in page order.
func (e *Engine) RasterizePDF(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	prefix := filepath.Join(outDir, "page")

	// pdftoppm -r <dpi> -jpeg <in.pdf> <outDir/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-jpeg"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, pdfPath, prefix)

	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w%s", err, stderrSuffix(errb))
	}

	// pdftoppm zero-pads page numbers based on the page count
	matches, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return pageIndex(matches[i]) < pageIndex(matches[j])
	})
	return matches, nil
}

func pageIndex(path string) int {
	m := pageNumber.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func stderrSuffix(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return ""
	}
	return ": " + truncate(s, 512)
}
