package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExtractPagesSplitsOnFormFeeds(t *testing.T) {
	runner := &stubRunner{stdout: []byte("Page one text\fPage two text\f")}
	c := &PdfToTextClient{bin: "pdftotext", path: "/fake/pdftotext", timeout: time.Second, runner: runner, logger: zap.NewNop().Sugar()}

	pages, err := c.ExtractPages(context.Background(), []byte("%PDF-1.4"))

	assert.NoError(t, err)
	assert.Equal(t, []string{"Page one text", "Page two text"}, pages)
	assert.Equal(t, "/fake/pdftotext", runner.lastName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}, runner.lastArgs[:5])
	assert.Equal(t, "-", runner.lastArgs[len(runner.lastArgs)-1])
}

func TestExtractPagesSinglePage(t *testing.T) {
	runner := &stubRunner{stdout: []byte("Only page\n")}
	c := &PdfToTextClient{bin: "pdftotext", path: "/fake/pdftotext", timeout: time.Second, runner: runner, logger: zap.NewNop().Sugar()}

	pages, err := c.ExtractPages(context.Background(), []byte("%PDF-1.4"))

	assert.NoError(t, err)
	assert.Equal(t, []string{"Only page\n"}, pages)
}

func TestExtractPagesCommandFailureIncludesStderr(t *testing.T) {
	runner := &stubRunner{
		err:    errors.New("exit status 1"),
		stderr: []byte("Syntax Error: Couldn't read xref table"),
	}
	c := &PdfToTextClient{bin: "pdftotext", path: "/fake/pdftotext", timeout: time.Second, runner: runner, logger: zap.NewNop().Sugar()}

	_, err := c.ExtractPages(context.Background(), []byte("broken"))

	assert.ErrorContains(t, err, "pdftotext failed")
	assert.ErrorContains(t, err, "xref table")
}

func TestExtractPagesUnavailable(t *testing.T) {
	c := NewPdfToTextClient("no-such-pdftotext-binary", time.Second, &stubRunner{}, zap.NewNop().Sugar())

	assert.False(t, c.Available())

	_, err := c.ExtractPages(context.Background(), []byte("%PDF-1.4"))
	assert.ErrorContains(t, err, "not available")
}
