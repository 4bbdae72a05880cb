package dto

import (
	"mime/multipart"
)

// BatchExtractionRequest represents the incoming batch upload
type BatchExtractionRequest struct {
	Files    []*multipart.FileHeader `form:"files[]" binding:"required"`
	Metadata string                  `form:"metadata"`
}

// Validate performs basic validation on the request
func (r *BatchExtractionRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFilesUploaded
	}
	return nil
}
