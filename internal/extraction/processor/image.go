package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cardiolens/cardiolens-backend/internal/extraction/domain"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/ocr"
	"github.com/cardiolens/cardiolens-backend/internal/extraction/storage"
	"github.com/cardiolens/cardiolens-backend/pkg/logger"
)

// ImageProcessor binarizes an image and runs tesseract over it.
type ImageProcessor struct {
	engine *ocr.Engine
	log    *logger.Logger
}

// NewImageProcessor creates an image processor
func NewImageProcessor(engine *ocr.Engine, log *logger.Logger) *ImageProcessor {
	return &ImageProcessor{engine: engine, log: log}
}

func (p *ImageProcessor) Name() string { return "image-ocr" }

func (p *ImageProcessor) CanProcess(kind domain.DocumentKind) bool {
	return kind == domain.DocumentKindImage
}

func (p *ImageProcessor) Process(ctx context.Context, path string, ws *storage.Workspace) (*domain.Text, error) {
	text, err := p.recognize(ctx, path, ws)
	if err != nil {
		return nil, err
	}
	return &domain.Text{Kind: domain.DocumentKindImage, Pages: 1, Body: text}, nil
}

// recognize OCRs one image, preprocessing it first when enabled. Images the
// decoder cannot read are handed to tesseract as they are.
func (p *ImageProcessor) recognize(ctx context.Context, path string, ws *storage.Workspace) (string, error) {
	target := path
	if p.engine.Preprocess() {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		binarized := ws.Path(base + ".bin.png")
		if err := ocr.Binarize(path, binarized); err != nil {
			p.log.Debug().Err(err).Str("file", filepath.Base(path)).Msg("preprocessing skipped")
		} else {
			target = binarized
		}
	}

	text, err := p.engine.ImageText(ctx, target)
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
	}
	return text, nil
}
