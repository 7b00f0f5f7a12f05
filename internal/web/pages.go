package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/catalog"
	"github.com/irfndi/heartguard-ai-go/internal/charts"
	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// modelsLookupTimeout bounds the live models lookup of the training page.
const modelsLookupTimeout = 3 * time.Second

type landingPage struct {
	Catalog *catalog.Catalog
}

// Landing handles GET /.
func (h *Handler) Landing(c *gin.Context) {
	h.render(c, http.StatusOK, "landing", "Heart disease, predicted", landingPage{Catalog: h.catalog})
}

type dataPage struct {
	Catalog     *catalog.Catalog
	Descriptors []features.Descriptor
	EDA         catalog.FigureGroup
	Tests       catalog.FigureGroup
}

// Data handles GET /data.
func (h *Handler) Data(c *gin.Context) {
	eda, _ := h.catalog.Group("eda")
	tests, _ := h.catalog.Group("statistical_tests")
	h.render(c, http.StatusOK, "data", "The data", dataPage{
		Catalog:     h.catalog,
		Descriptors: features.Descriptors,
		EDA:         eda,
		Tests:       tests,
	})
}

type liveModel struct {
	Name string
	Info models.ModelInfo
}

type trainingPage struct {
	Catalog    *catalog.Catalog
	TopSHAP    []catalog.Importance
	Galleries  []catalog.FigureGroup
	LiveModels []liveModel
}

// Training handles GET /training. The live models table is left out when
// the scoring service does not answer.
func (h *Handler) Training(c *gin.Context) {
	page := trainingPage{
		Catalog: h.catalog,
		TopSHAP: h.catalog.TopSHAP(10),
	}
	for _, id := range []string{"training", "evaluation", "stacking"} {
		if g, ok := h.catalog.Group(id); ok {
			page.Galleries = append(page.Galleries, g)
		}
	}
	page.LiveModels = h.liveModels(c.Request.Context())
	h.render(c, http.StatusOK, "training", "Training", page)
}

func (h *Handler) liveModels(ctx context.Context) []liveModel {
	if h.models == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, modelsLookupTimeout)
	defer cancel()

	info, err := h.models.Models(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Live models unavailable")
		return nil
	}
	out := make([]liveModel, 0, len(info))
	for _, name := range info.Names() {
		out = append(out, liveModel{Name: name, Info: info[name]})
	}
	return out
}

// Chart handles GET /charts/:name. The contributions chart draws the
// session's last prediction.
func (h *Handler) Chart(c *gin.Context) {
	name := c.Param("name")

	var result *models.PredictionResult
	if name == charts.Contributions {
		s, err := h.wizard.Snapshot(c.Request.Context(), middleware.SessionID(c))
		if err != nil {
			h.logger.WithError(err).Error("Failed to load wizard state for chart")
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
		result = s.Result
	}

	_, span := middleware.StartSpan(c, "chart.render")
	defer span.End()
	middleware.AddSpanAttribute(c, "chart.name", name)

	var buf bytes.Buffer
	if err := h.charts.Render(&buf, name, result); err != nil {
		if errors.Is(err, charts.ErrUnknownChart) || errors.Is(err, charts.ErrNoResult) {
			c.String(http.StatusNotFound, err.Error())
			return
		}
		middleware.RecordError(c, err, "chart render failed")
		h.logger.WithError(err).WithField("chart", name).Error("Failed to render chart")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
