package dto

import "errors"

// Custom errors
var (
	ErrNoFilesUploaded   = errors.New("at least one file is required")
	ErrNoExtractableText = errors.New("could not read text from document (no text after extract/OCR)")
	ErrNoMappingMatched  = errors.New("no active invoice mapping matched this document")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractionResponse is the single-document response structure
type ExtractionResponse struct {
	Filename    string           `json:"filename"`
	Result      ExtractionResult `json:"result"`
	ProcessedAt string           `json:"processed_at"`
}

// BatchResponse is the batch-run response structure
type BatchResponse struct {
	RunID       string      `json:"run_id"`
	Status      RunStatus   `json:"status"`
	Totals      BatchTotals `json:"totals"`
	Rows        []BatchRow  `json:"rows"`
	Log         []string    `json:"log"`
	ProcessedAt string      `json:"processed_at"`
}

// MappingsResponse lists the loaded mapping profiles
type MappingsResponse struct {
	Mappings []MappingInfo `json:"mappings"`
	Count    int           `json:"count"`
}
