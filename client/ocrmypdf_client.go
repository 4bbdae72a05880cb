package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// OCRMyPDFClient runs the ocrmypdf CLI to add a text layer to scanned PDFs.
// The binary is optional at deploy time; Available reports whether it was
// found on PATH when the client was constructed.
type OCRMyPDFClient struct {
	bin     string
	path    string
	timeout time.Duration
	runner  Runner
	logger  *zap.SugaredLogger
}

func NewOCRMyPDFClient(bin string, timeout time.Duration, runner Runner, logger *zap.SugaredLogger) *OCRMyPDFClient {
	c := &OCRMyPDFClient{
		bin:     bin,
		timeout: timeout,
		runner:  runner,
		logger:  logger,
	}
	if path, err := exec.LookPath(bin); err == nil {
		c.path = path
	} else {
		logger.Debugw("ocrmypdf binary not found on PATH", "bin", bin)
	}
	return c
}

func (c *OCRMyPDFClient) Available() bool {
	return c != nil && c.path != ""
}

// OCR writes the PDF to a temp file, runs ocrmypdf with --force-ocr, and
// returns the output PDF bytes together with a short info string for the
// extraction log.
func (c *OCRMyPDFClient) OCR(ctx context.Context, pdfData []byte) ([]byte, string, error) {
	if !c.Available() {
		return nil, "", fmt.Errorf("ocrmypdf not available")
	}

	tempDir, err := os.MkdirTemp("", "ocrmypdf")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "in.pdf")
	outPath := filepath.Join(tempDir, "out.pdf")
	if err := os.WriteFile(inPath, pdfData, 0o600); err != nil {
		return nil, "", fmt.Errorf("failed to write temp pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.runner.Run(ctx, c.path, "--force-ocr", "--quiet", inPath, outPath)
	if err != nil {
		return nil, "", fmt.Errorf("ocrmypdf failed: %v: %s", err, truncate(string(stderr), 200))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read ocrmypdf output: %w", err)
	}

	c.logger.Infow("OCR via CLI succeeded", "path", c.path, "bytes", len(out))
	return out, fmt.Sprintf("OCR via CLI succeeded (path=%s).", c.path), nil
}
