package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
	"github.com/aplabs-bh/ocr-invoice-extraction/mapping"
)

type MappingHandler struct {
	store  *mapping.Store
	logger *zap.SugaredLogger
}

func NewMappingHandler(store *mapping.Store, logger *zap.SugaredLogger) *MappingHandler {
	return &MappingHandler{
		store:  store,
		logger: logger,
	}
}

// ListMappings handles the GET /mappings endpoint.
func (h *MappingHandler) ListMappings(c *gin.Context) {
	profiles := h.store.All()

	infos := make([]dto.MappingInfo, 0, len(profiles))
	for _, p := range profiles {
		infos = append(infos, dto.MappingInfo{
			Name:      p.Name,
			Supplier:  p.Supplier,
			Priority:  int(p.Priority),
			Keywords:  p.KeywordsList(),
			Active:    p.IsActive(),
			RuleCount: len(p.Rules),
		})
	}

	c.JSON(http.StatusOK, dto.MappingsResponse{
		Mappings: infos,
		Count:    len(infos),
	})
}

// ReloadMappings handles the POST /mappings/reload endpoint. On a failed
// reload the previously loaded profile set stays in effect.
func (h *MappingHandler) ReloadMappings(c *gin.Context) {
	if err := h.store.Load(); err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to reload mapping profiles", err)
		return
	}

	h.logger.Infow("mapping profiles reloaded", "count", h.store.Count())
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"count":  h.store.Count(),
	})
}

// sendError sends a structured error response
func (h *MappingHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		h.logger.Errorw("request failed", "message", message, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "MAPPING_ERROR",
		Message: errorMsg,
		Code:    statusCode,
	})
}
