package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/domain"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/ocr"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/storage"
)

// PDFProcessor rasterizes each page and OCRs the page images in order.
type PDFProcessor struct {
	engine *ocr.Engine
	images *ImageProcessor
}

// NewPDFProcessor creates a PDF processor that reuses images for each page
func NewPDFProcessor(engine *ocr.Engine, images *ImageProcessor) *PDFProcessor {
	return &PDFProcessor{engine: engine, images: images}
}

func (p *PDFProcessor) Name() string { return "pdf-ocr" }

func (p *PDFProcessor) CanProcess(kind domain.DocumentKind) bool {
	return kind == domain.DocumentKindPDF
}

// Process returns the page texts concatenated, each followed by a newline.
func (p *PDFProcessor) Process(ctx context.Context, path string, ws *storage.Workspace) (*domain.Text, error) {
	pagesDir := filepath.Join(ws.Dir(), "pages")
	if err := os.Mkdir(pagesDir, 0o700); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}

	pages, err := p.engine.RasterizePDF(ctx, path, pagesDir)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := p.images.recognize(ctx, page, ws)
		if err != nil {
			return nil, err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return &domain.Text{Kind: domain.DocumentKindPDF, Pages: len(pages), Body: b.String()}, nil
}
