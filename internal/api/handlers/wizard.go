package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// WizardController is the subset of wizard.Controller the handlers call.
type WizardController interface {
	Snapshot(ctx context.Context, id string) (wizard.State, error)
	SetFields(ctx context.Context, id string, values map[models.Field]float64) (wizard.State, error)
	Next(ctx context.Context, id string) (wizard.State, error)
	Prev(ctx context.Context, id string) (wizard.State, error)
	GoTo(ctx context.Context, id string, step int) (wizard.State, error)
	Modify(ctx context.Context, id string) (wizard.State, error)
	Reset(ctx context.Context, id string) (wizard.State, error)
	Submit(ctx context.Context, id string) (wizard.State, error)
	Retry(ctx context.Context, id string) (wizard.State, error)
	LoadPreset(ctx context.Context, id, presetID string) (wizard.State, error)
	RefreshHealth(ctx context.Context, id string) (wizard.State, error)
}

// Action types accepted by POST /api/v1/wizard/actions.
const (
	ActionSetField      = "set_field"
	ActionSetFields     = "set_fields"
	ActionNext          = "next_step"
	ActionPrev          = "prev_step"
	ActionGoTo          = "go_to_step"
	ActionModify        = "modify"
	ActionReset         = "reset"
	ActionSubmit        = "submit"
	ActionRetry         = "retry"
	ActionLoadPreset    = "load_preset"
	ActionRefreshHealth = "refresh_health"
)

// ActionRequest is one wizard action. Only the fields its type uses are read.
type ActionRequest struct {
	Type   string             `json:"type" binding:"required"`
	Field  string             `json:"field,omitempty"`
	Value  *float64           `json:"value,omitempty"`
	Values map[string]float64 `json:"values,omitempty"`
	Step   *int               `json:"step,omitempty"`
	Preset string             `json:"preset,omitempty"`
}

// WizardHandler exposes the demo wizard as JSON.
type WizardHandler struct {
	controller WizardController
}

// NewWizardHandler creates a WizardHandler.
func NewWizardHandler(controller WizardController) *WizardHandler {
	return &WizardHandler{controller: controller}
}

// GetWizard handles GET /api/v1/wizard.
func (h *WizardHandler) GetWizard(c *gin.Context) {
	s, err := h.controller.Snapshot(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wizard.NewView(s))
}

// PostAction handles POST /api/v1/wizard/actions.
func (h *WizardHandler) PostAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid action body: "+err.Error())
		return
	}

	middleware.AddSpanAttribute(c, "wizard.action", req.Type)
	s, err := h.apply(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wizard.NewView(s))
}

// badRequest marks malformed actions so StatusOf maps them to 400.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (h *WizardHandler) apply(ctx context.Context, id string, req ActionRequest) (wizard.State, error) {
	switch req.Type {
	case ActionSetField:
		if req.Value == nil {
			return wizard.State{}, &badRequest{"set_field requires a value"}
		}
		f, err := models.ParseField(req.Field)
		if err != nil {
			return wizard.State{}, &badRequest{err.Error()}
		}
		return h.controller.SetFields(ctx, id, map[models.Field]float64{f: *req.Value})
	case ActionSetFields:
		if len(req.Values) == 0 {
			return wizard.State{}, &badRequest{"set_fields requires values"}
		}
		values := make(map[models.Field]float64, len(req.Values))
		for name, v := range req.Values {
			f, err := models.ParseField(name)
			if err != nil {
				return wizard.State{}, &badRequest{err.Error()}
			}
			values[f] = v
		}
		return h.controller.SetFields(ctx, id, values)
	case ActionNext:
		return h.controller.Next(ctx, id)
	case ActionPrev:
		return h.controller.Prev(ctx, id)
	case ActionGoTo:
		if req.Step == nil {
			return wizard.State{}, &badRequest{"go_to_step requires a step"}
		}
		return h.controller.GoTo(ctx, id, *req.Step)
	case ActionModify:
		return h.controller.Modify(ctx, id)
	case ActionReset:
		return h.controller.Reset(ctx, id)
	case ActionSubmit:
		return h.controller.Submit(ctx, id)
	case ActionRetry:
		return h.controller.Retry(ctx, id)
	case ActionLoadPreset:
		return h.controller.LoadPreset(ctx, id, req.Preset)
	case ActionRefreshHealth:
		return h.controller.RefreshHealth(ctx, id)
	default:
		return wizard.State{}, &badRequest{fmt.Sprintf("unknown action type %q", req.Type)}
	}
}
