package service

import (
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.uber.org/zap"
)

// BarcodeProbe scans invoice page images for a QR code. Several regional
// tax authorities require invoices to carry one, and its payload is kept
// as an extracted field when present.
type BarcodeProbe struct {
	processor PDFProcessor
	logger    *zap.SugaredLogger
}

func NewBarcodeProbe(processor PDFProcessor, logger *zap.SugaredLogger) *BarcodeProbe {
	return &BarcodeProbe{
		processor: processor,
		logger:    logger,
	}
}

// ProbeQR returns the payload of the first QR code found in the document's
// embedded images. Most invoices have none, so decode failures are expected
// and only logged at debug level.
func (b *BarcodeProbe) ProbeQR(pdfData []byte) (string, bool) {
	images, err := b.processor.ExtractImages(pdfData)
	if err != nil {
		b.logger.Debugw("image extraction for QR probe failed", "error", err)
		return "", false
	}
	if len(images) == 0 {
		return "", false
	}

	qrReader := qrcode.NewQRCodeReader()
	for idx, img := range images {
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			b.logger.Debugw("failed to create binary bitmap", "page", idx+1, "error", err)
			continue
		}

		result, err := qrReader.Decode(bmp, nil)
		if err != nil {
			continue
		}

		text := strings.TrimSpace(result.GetText())
		if text != "" {
			b.logger.Debugw("QR code decoded", "page", idx+1, "payload_length", len(text))
			return text, true
		}
	}

	return "", false
}
