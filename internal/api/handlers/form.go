package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// FieldSchema is the wire form of a form.Config.
type FieldSchema struct {
	Field        models.Field `json:"field"`
	Label        string       `json:"label"`
	Description  string       `json:"description"`
	Kind         string       `json:"kind"`
	Input        form.Kind    `json:"input"`
	DefaultValue float64      `json:"default_value"`
}

// FormSchemaResponse describes every wizard input and step.
type FormSchemaResponse struct {
	Fields []FieldSchema        `json:"fields"`
	Steps  []form.Step          `json:"steps"`
	Record models.PatientRecord `json:"default_record"`
}

// FeaturesResponse is the result of POST /api/v1/features.
type FeaturesResponse struct {
	Derived     features.DerivedFeatureSet `json:"derived_features"`
	Descriptors []features.Descriptor      `json:"descriptors"`
}

// FormHandler serves the static form definition and the feature preview.
type FormHandler struct{}

// NewFormHandler creates a FormHandler.
func NewFormHandler() *FormHandler {
	return &FormHandler{}
}

// GetSchema handles GET /api/v1/form.
func (h *FormHandler) GetSchema(c *gin.Context) {
	fields := make([]FieldSchema, 0, len(form.Fields))
	for _, cfg := range form.Fields {
		fields = append(fields, FieldSchema{
			Field:        cfg.Field,
			Label:        cfg.Label,
			Description:  cfg.Description,
			Kind:         form.KindName(cfg.Kind),
			Input:        cfg.Kind,
			DefaultValue: cfg.DefaultValue,
		})
	}
	c.JSON(http.StatusOK, FormSchemaResponse{
		Fields: fields,
		Steps:  form.Steps,
		Record: form.DefaultRecord(),
	})
}

// GetPresets handles GET /api/v1/presets.
func (h *FormHandler) GetPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": form.Presets})
}

// PostFeatures handles POST /api/v1/features. The record is validated
// before anything is derived.
func (h *FormHandler) PostFeatures(c *gin.Context) {
	var record models.PatientRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid patient record: "+err.Error())
		return
	}
	if err := form.ValidateRecord(record); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FeaturesResponse{
		Derived:     features.Derive(record),
		Descriptors: features.Descriptors,
	})
}
