package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PdfToTextClient wraps the poppler pdftotext CLI. It is one backend of the
// text extraction cascade and is skipped entirely when the binary is not
// installed.
type PdfToTextClient struct {
	bin     string
	path    string
	timeout time.Duration
	runner  Runner
	logger  *zap.SugaredLogger
}

func NewPdfToTextClient(bin string, timeout time.Duration, runner Runner, logger *zap.SugaredLogger) *PdfToTextClient {
	c := &PdfToTextClient{
		bin:     bin,
		timeout: timeout,
		runner:  runner,
		logger:  logger,
	}
	if path, err := exec.LookPath(bin); err == nil {
		c.path = path
	} else {
		logger.Debugw("pdftotext binary not found on PATH", "bin", bin)
	}
	return c
}

func (c *PdfToTextClient) Available() bool {
	return c != nil && c.path != ""
}

// ExtractPages runs pdftotext in layout mode and splits the output on the
// form feeds poppler emits between pages.
func (c *PdfToTextClient) ExtractPages(ctx context.Context, pdfData []byte) ([]string, error) {
	if !c.Available() {
		return nil, fmt.Errorf("pdftotext not available")
	}

	tempDir, err := os.MkdirTemp("", "pdftotext")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "in.pdf")
	if err := os.WriteFile(inPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp pdf: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, err := c.runner.Run(ctx, c.path, "-layout", "-enc", "UTF-8", "-eol", "unix", inPath, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v: %s", err, truncate(string(stderr), 200))
	}

	text := strings.TrimRight(string(stdout), "\f")
	return strings.Split(text, "\f"), nil
}
