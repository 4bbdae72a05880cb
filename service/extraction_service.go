package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
	"github.com/aplabs-bh/ocr-invoice-extraction/mapping"
	"github.com/aplabs-bh/ocr-invoice-extraction/utils"
)

// ExtractionService turns one uploaded document into structured invoice
// fields: text cascade, OCR fallback, mapping selection, rule engine,
// vendor heuristics and the QR probe, in that order.
type ExtractionService struct {
	cascade       *TextCascade
	fallback      *OCRFallback
	selector      *mapping.Selector
	qrProbe       *BarcodeProbe
	vendorParsers bool
	logger        *zap.SugaredLogger
}

func NewExtractionService(
	cascade *TextCascade,
	fallback *OCRFallback,
	selector *mapping.Selector,
	qrProbe *BarcodeProbe,
	vendorParsers bool,
	logger *zap.SugaredLogger,
) *ExtractionService {
	return &ExtractionService{
		cascade:       cascade,
		fallback:      fallback,
		selector:      selector,
		qrProbe:       qrProbe,
		vendorParsers: vendorParsers,
		logger:        logger,
	}
}

// Extract processes a single document. The supplier hint in meta is optional;
// without it the mapping is chosen by keyword scoring over the document text.
func (s *ExtractionService) Extract(ctx context.Context, data []byte, meta dto.DocumentMeta) (*dto.ExtractionResult, error) {
	fullText, pages := s.cascade.Extract(ctx, data)
	s.logger.Debugw("text extracted",
		"filename", meta.Filename,
		"text_length", len(fullText),
		"pages", len(pages),
	)

	var ocrUsed bool
	var ocrNote string
	if LooksBinary(fullText) || strings.TrimSpace(fullText) == "" {
		// A single recovery attempt per document. Recover hands back the
		// original bytes when OCR is unavailable, so re-running the cascade
		// is safe either way.
		recovered, info := s.fallback.Recover(ctx, data)
		s.logger.Infow("OCR fallback engaged", "filename", meta.Filename, "note", info)
		ocrNote = info

		newText, newPages := s.cascade.Extract(ctx, recovered)
		if strings.TrimSpace(newText) != "" && !LooksBinary(newText) {
			fullText, pages = newText, newPages
			ocrUsed = true
		}
	}

	if strings.TrimSpace(fullText) == "" || LooksBinary(fullText) {
		return nil, dto.ErrNoExtractableText
	}

	profile := s.selector.Select(meta.Supplier, fullText)
	if profile == nil {
		return nil, dto.ErrNoMappingMatched
	}
	s.logger.Debugw("mapping selected",
		"filename", meta.Filename,
		"mapping", profile.Name,
		"supplier", profile.Supplier,
	)

	fields, hits, diags := mapping.ApplyRules(profile.EngineRules(), fullText, pages)
	if ocrNote != "" {
		diags = append(diags, "ocr:"+ocrNote)
	}

	if s.vendorParsers {
		fields, hits = s.supplementFromVendor(profile.Supplier, fullText, fields, hits)
	}

	if s.qrProbe != nil {
		if _, ok := fields[dto.FieldQRCode]; !ok {
			if payload, found := s.qrProbe.ProbeQR(data); found {
				fields[dto.FieldQRCode] = payload
				hits = append(hits, "qr:"+preview(payload, 40))
			}
		}
	}

	required := 0
	for _, r := range profile.EngineRules() {
		if r.Required {
			required++
		}
	}

	return &dto.ExtractionResult{
		Mapping:    profile.Name,
		Supplier:   profile.Supplier,
		Fields:     fields,
		Hits:       hits,
		Errors:     diags,
		Confidence: confidenceScore(len(hits), required),
		TextLength: len(fullText),
		PageCount:  len(pages),
		OCRUsed:    ocrUsed,
	}, nil
}

// supplementFromVendor fills fields the rule engine left empty using the
// vendor-specific heuristic parsers. Rule engine values always win.
func (s *ExtractionService) supplementFromVendor(supplier, fullText string, fields map[string]any, hits []string) (map[string]any, []string) {
	key, ok := utils.ResolveVendorKey(supplier, fullText)
	if !ok {
		return fields, hits
	}

	vendorFields := utils.ParseVendorFields(key, fullText)
	if len(vendorFields) == 0 {
		return fields, hits
	}

	names := make([]string, 0, len(vendorFields))
	for name := range vendorFields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = vendorFields[name]
		hits = append(hits, fmt.Sprintf("vendor:%s:%s", key, name))
	}
	return fields, hits
}

// confidenceScore grows with each recorded hit, saturating so that even a
// fully matched document never reports certainty.
func confidenceScore(hits, required int) float64 {
	minRequired := required
	if minRequired < 1 {
		minRequired = 1
	}
	n := hits
	if n > minRequired {
		n = minRequired
	}
	conf := 0.6 + 0.1*float64(n)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
