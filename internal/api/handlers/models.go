package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/prediction"
)

// ModelsSource lists the models loaded by the scoring service.
type ModelsSource interface {
	Models(ctx context.Context) (models.ModelsInfo, error)
}

// ModelsHandler proxies the scoring service's model metadata.
type ModelsHandler struct {
	source ModelsSource
}

// NewModelsHandler creates a ModelsHandler.
func NewModelsHandler(source ModelsSource) *ModelsHandler {
	return &ModelsHandler{source: source}
}

// GetModels handles GET /api/v1/models. Upstream failures answer 502 with
// the user-facing message of the failure.
func (h *ModelsHandler) GetModels(c *gin.Context) {
	info, err := h.source.Models(c.Request.Context())
	if err != nil {
		middleware.RecordError(c, err, "models lookup failed")
		abortWithError(c, http.StatusBadGateway, prediction.MessageOf(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"models": info,
		"names":  info.Names(),
	})
}
