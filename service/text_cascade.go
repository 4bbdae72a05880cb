package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aplabs-bh/ocr-invoice-extraction/client"
)

var errNotPlainText = errors.New("input is not plain text")

// TextBackend is one strategy in the extraction cascade. Extract returns
// per-page text; page slots must stay aligned with the document.
type TextBackend struct {
	Name    string
	Extract func(ctx context.Context, data []byte) ([]string, error)
}

// TextCascade tries an ordered list of text backends against document
// bytes. The first backend producing non-blank text wins; when all of
// them fail or come back blank, a raw byte decode is returned, which may
// itself be blank or binary-looking.
type TextCascade struct {
	backends []TextBackend
	logger   *zap.SugaredLogger
}

func NewTextCascade(processor PDFProcessor, pdfToText *client.PdfToTextClient, logger *zap.SugaredLogger) *TextCascade {
	c := &TextCascade{logger: logger}
	c.backends = []TextBackend{
		{Name: "plaintext", Extract: func(_ context.Context, data []byte) ([]string, error) {
			return plainTextPages(data)
		}},
		{Name: "pdf_rows", Extract: func(_ context.Context, data []byte) ([]string, error) {
			return processor.ExtractTextByRow(data)
		}},
		{Name: "pdf_plain", Extract: func(_ context.Context, data []byte) ([]string, error) {
			return processor.ExtractPlainText(data)
		}},
	}
	if pdfToText != nil && pdfToText.Available() {
		c.backends = append(c.backends, TextBackend{Name: "pdftotext", Extract: pdfToText.ExtractPages})
	}
	return c
}

// Extract folds over the backends in order and returns the first non-blank
// (fullText, pages) outcome.
func (c *TextCascade) Extract(ctx context.Context, data []byte) (string, []string) {
	for _, b := range c.backends {
		pages, err := runBackend(ctx, b, data)
		if err != nil {
			c.logger.Debugw("text backend failed", "backend", b.Name, "error", err)
			continue
		}
		full := strings.Join(pages, "\n")
		if strings.TrimSpace(full) != "" {
			c.logger.Debugw("text backend succeeded", "backend", b.Name, "pages", len(pages), "chars", len(full))
			return full, pages
		}
	}

	text := rawDecode(data)
	return text, []string{text}
}

// runBackend isolates one backend attempt; the pdf library panics on some
// malformed files, so a failure here becomes an error, not a crash.
func runBackend(ctx context.Context, b TextBackend, data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%s: panic: %v", b.Name, r)
		}
	}()
	return b.Extract(ctx, data)
}

// plainTextPages treats the input as already-extracted text when it does
// not carry a container marker and is valid UTF-8. Pages are delimited by
// form feeds, the convention used by the OCR fallback and pdftotext.
func plainTextPages(data []byte) ([]string, error) {
	if bytes.HasPrefix(data, []byte("%PDF")) || bytes.HasPrefix(data, []byte{0x00, 0x01}) {
		return nil, errNotPlainText
	}
	if !utf8.Valid(data) {
		return nil, errNotPlainText
	}
	return strings.Split(string(data), "\f"), nil
}

// rawDecode is the terminal fallback: the raw bytes as text with invalid
// UTF-8 dropped.
func rawDecode(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

// LooksBinary reports whether extracted text still starts with a raw
// container marker, meaning the cascade recovered bytes rather than text.
func LooksBinary(text string) bool {
	return strings.HasPrefix(text, "%PDF") || strings.HasPrefix(text, "\x00\x01")
}
