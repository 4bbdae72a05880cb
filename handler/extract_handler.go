package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
	"github.com/aplabs-bh/ocr-invoice-extraction/service"
)

type ExtractHandler struct {
	extractor   *service.ExtractionService
	batch       *service.BatchService
	maxFileSize int64
	logger      *zap.SugaredLogger
}

func NewExtractHandler(extractor *service.ExtractionService, batch *service.BatchService, maxFileSize int64, logger *zap.SugaredLogger) *ExtractHandler {
	return &ExtractHandler{
		extractor:   extractor,
		batch:       batch,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Extract handles the POST /extract endpoint for a single document.
func (h *ExtractHandler) Extract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "A file upload is required", err)
		return
	}

	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		h.sendError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds size limit (%d bytes)", h.maxFileSize), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	meta := dto.DocumentMeta{
		Filename: fileHeader.Filename,
		Supplier: c.PostForm("supplier"),
	}

	h.logger.Infow("extraction request received", "filename", meta.Filename, "supplier", meta.Supplier)

	result, err := h.extractor.Extract(c.Request.Context(), data, meta)
	if err != nil {
		switch err {
		case dto.ErrNoExtractableText, dto.ErrNoMappingMatched:
			h.sendError(c, http.StatusUnprocessableEntity, err.Error(), err)
		default:
			h.sendError(c, http.StatusInternalServerError, "Failed to extract invoice fields", err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.ExtractionResponse{
		Filename:    fileHeader.Filename,
		Result:      *result,
		ProcessedAt: time.Now().Format(time.RFC3339),
	})
}

// BatchExtract handles the POST /extract/batch endpoint.
func (h *ExtractHandler) BatchExtract(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	files := form.File["files[]"]
	request := &dto.BatchExtractionRequest{
		Files:    files,
		Metadata: c.PostForm("metadata"),
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	var meta dto.UploadMetadata
	if request.Metadata != "" {
		if err := json.Unmarshal([]byte(request.Metadata), &meta); err != nil {
			h.sendError(c, http.StatusBadRequest, "Invalid metadata JSON", err)
			return
		}
	}

	h.logger.Infow("batch extraction request received", "files", len(files))

	response := h.batch.ParseFiles(c.Request.Context(), files, meta)
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *ExtractHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.logger.Errorw("request failed", "message", message, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
