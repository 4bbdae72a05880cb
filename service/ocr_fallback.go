package service

import (
	"context"
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"
)

// ImageOCRClient runs OCR over a single rendered page image.
type ImageOCRClient interface {
	ExtractTextAndQualityFromImage(img image.Image) (string, float64, error)
}

// PDFOCRClient rebuilds a scanned PDF with an embedded text layer.
type PDFOCRClient interface {
	Available() bool
	OCR(ctx context.Context, pdfData []byte) ([]byte, string, error)
}

// OCRFallback recovers text from image-only PDFs. It tries in-process
// Tesseract over the embedded page images first, then the ocrmypdf CLI.
// Recover never fails hard: when every attempt is exhausted it hands back
// the original bytes with a reason the caller can log.
type OCRFallback struct {
	processor PDFProcessor
	tesseract ImageOCRClient
	ocrmypdf  PDFOCRClient
	logger    *zap.SugaredLogger
}

func NewOCRFallback(processor PDFProcessor, tesseract ImageOCRClient, ocrmypdf PDFOCRClient, logger *zap.SugaredLogger) *OCRFallback {
	return &OCRFallback{
		processor: processor,
		tesseract: tesseract,
		ocrmypdf:  ocrmypdf,
		logger:    logger,
	}
}

// Recover returns either plain-text pages separated by form feeds (Tesseract
// path) or a new PDF with a text layer (ocrmypdf path). The info string is a
// short note for the extraction log.
func (f *OCRFallback) Recover(ctx context.Context, pdfData []byte) ([]byte, string) {
	var note string

	if f.tesseract != nil {
		out, pages, avgConf, err := f.recoverInProcess(ctx, pdfData)
		if err == nil {
			f.logger.Infow("OCR via Tesseract succeeded",
				"pages", pages,
				"avg_word_confidence", avgConf,
			)
			return out, fmt.Sprintf("OCR via Tesseract succeeded (pages=%d).", pages)
		}
		f.logger.Debugw("in-process OCR failed", "error", err)
		note = fmt.Sprintf(" (Tesseract: %s)", clip(err.Error(), 100))
	} else {
		note = " (Tesseract unavailable)"
	}

	if f.ocrmypdf == nil || !f.ocrmypdf.Available() {
		return pdfData, fmt.Sprintf("OCR CLI unavailable%s.", note)
	}

	out, info, err := f.ocrmypdf.OCR(ctx, pdfData)
	if err != nil {
		return pdfData, fmt.Sprintf("OCR CLI failed%s: %s", note, clip(err.Error(), 200))
	}
	return out, info
}

func (f *OCRFallback) recoverInProcess(ctx context.Context, pdfData []byte) ([]byte, int, float64, error) {
	images, err := f.processor.ExtractImages(pdfData)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("image extraction failed: %w", err)
	}
	if len(images) == 0 {
		return nil, 0, 0, fmt.Errorf("no page images found")
	}

	var pages []string
	var totalConf float64
	var scored int
	for idx, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, err
		}

		text, conf, err := f.tesseract.ExtractTextAndQualityFromImage(img)
		if err != nil {
			f.logger.Debugw("page OCR failed", "page", idx+1, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
		if conf > 0 {
			totalConf += conf
			scored++
		}
	}

	combined := strings.Join(pages, "\f")
	if strings.TrimSpace(combined) == "" {
		return nil, 0, 0, fmt.Errorf("no text recognized")
	}

	avg := 0.0
	if scored > 0 {
		avg = totalConf / float64(scored)
	}
	return []byte(combined), len(pages), avg, nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
