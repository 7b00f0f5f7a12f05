package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// loaderRefreshSeconds is how often the loader page reloads while a
// submission is in flight.
const loaderRefreshSeconds = 2

// maxResultFactors caps the contribution bars drawn on the result screen.
const maxResultFactors = 8

type stepIndicator struct {
	Number int
	Label  string
	State  string
}

type derivedRow struct {
	Label   string
	Formula string
	Value   string
}

type modelView struct {
	Name        string
	Algo        string
	Probability string
	Positive    bool
	AUC         string
	Threshold   string
	Confidence  string
}

type factorView struct {
	Label    string
	Weight   string
	Width    int
	Positive bool
}

type resultView struct {
	Probability    string
	Tier           RiskTier
	Agreement      string
	Confidence     string
	ProcessingMS   string
	Interpretation string
	Models         []modelView
	Factors        []factorView
	Disclaimer     string
}

type demoPage struct {
	View      wizard.View
	Steps     []stepIndicator
	Fields    []fieldView
	Presets   []form.Preset
	Derived   []derivedRow
	Result    *resultView
	FormError string
}

func (h *Handler) demoPage(v wizard.View, formError string) demoPage {
	page := demoPage{
		View:      v,
		Presets:   form.Presets,
		FormError: formError,
	}
	for i, s := range form.Steps {
		state := "todo"
		switch {
		case i < v.Step:
			state = "done"
		case i == v.Step:
			state = "current"
		}
		page.Steps = append(page.Steps, stepIndicator{Number: i + 1, Label: s.Label, State: state})
	}
	page.Fields = stepFieldViews(v.CurrentStep, v.Record)

	values := v.Derived.Values()
	for _, d := range features.Descriptors {
		page.Derived = append(page.Derived, derivedRow{
			Label:   d.Label,
			Formula: d.Formula,
			Value:   strconv.FormatFloat(values[d.Name], 'f', 2, 64),
		})
	}
	if v.Result != nil {
		page.Result = h.resultView(v.Result)
	}
	return page
}

func (h *Handler) resultView(r *models.PredictionResult) *resultView {
	rv := &resultView{
		Probability:    Percent(r.Consensus.Probability, 1),
		Tier:           TierOf(r.Consensus.RiskLevel),
		Agreement:      r.Consensus.Agreement,
		Confidence:     r.Consensus.Confidence,
		ProcessingMS:   Fixed(r.ProcessingTimeMS, 0),
		Interpretation: Interpretation(r, h.catalog.Metrics.OptimalThreshold),
		Disclaimer:     r.Disclaimer,
	}
	if rv.Disclaimer == "" {
		rv.Disclaimer = h.catalog.Disclaimer
	}

	for _, m := range r.Models {
		mv := modelView{
			Name:        titleCase(m.Name),
			Algo:        m.Algo,
			Probability: Percent(m.Probability, 1),
			Positive:    m.Prediction == 1,
			Threshold:   Fixed(m.Threshold, 2),
			Confidence:  m.Confidence,
		}
		if m.AUC != nil {
			mv.AUC = Fixed(*m.AUC, 3)
		}
		rv.Models = append(rv.Models, mv)
	}

	contribs := r.SortedContributions()
	if len(contribs) > maxResultFactors {
		contribs = contribs[:maxResultFactors]
	}
	maxWeight := 0.0
	for _, c := range contribs {
		if w := abs(c.Weight); w > maxWeight {
			maxWeight = w
		}
	}
	for _, c := range contribs {
		width := 0
		if maxWeight > 0 {
			width = int(abs(c.Weight) / maxWeight * 100)
		}
		rv.Factors = append(rv.Factors, factorView{
			Label:    FeatureLabel(c.Feature),
			Weight:   Fixed(c.Weight, 3),
			Width:    width,
			Positive: c.Weight >= 0,
		})
	}
	return rv
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Demo handles GET /demo. The health flag is refreshed on every visit; the
// monitor keeps that cheap.
func (h *Handler) Demo(c *gin.Context) {
	s, err := h.wizard.RefreshHealth(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.failure(c, err)
		return
	}
	h.renderDemo(c, http.StatusOK, s, "")
}

func (h *Handler) renderDemo(c *gin.Context, status int, s wizard.State, formError string) {
	v := wizard.NewView(s)
	refresh := 0
	if v.Phase == wizard.PhaseSubmitting {
		refresh = loaderRefreshSeconds
	}
	h.renderRefresh(c, status, "demo", "AI diagnosis", h.demoPage(v, formError), refresh)
}

// PostStep handles POST /demo/step: it stores the posted fields of the
// displayed step, then moves according to nav.
func (h *Handler) PostStep(c *gin.Context) {
	ctx := c.Request.Context()
	id := middleware.SessionID(c)

	s, err := h.wizard.Snapshot(ctx, id)
	if err != nil {
		h.failure(c, err)
		return
	}
	if s.Loading {
		c.Redirect(http.StatusSeeOther, "/demo")
		return
	}

	values, err := parseStepValues(s.CurrentStep(), c.GetPostForm)
	if err == nil && len(values) > 0 {
		s, err = h.wizard.SetFields(ctx, id, values)
	}
	if err != nil {
		h.failure(c, err)
		return
	}

	switch c.PostForm("nav") {
	case "prev":
		_, err = h.wizard.Prev(ctx, id)
	case "next":
		_, err = h.wizard.Next(ctx, id)
	case "submit":
		_, err = h.wizard.Submit(ctx, id)
	case "":
	default:
		h.renderDemo(c, http.StatusBadRequest, s, "Unknown navigation "+strconv.Quote(c.PostForm("nav")))
		return
	}
	h.afterAction(c, err)
}

// PostPreset handles POST /demo/preset/:id.
func (h *Handler) PostPreset(c *gin.Context) {
	_, err := h.wizard.LoadPreset(c.Request.Context(), middleware.SessionID(c), c.Param("id"))
	h.afterAction(c, err)
}

// PostRetry handles POST /demo/retry.
func (h *Handler) PostRetry(c *gin.Context) {
	_, err := h.wizard.Retry(c.Request.Context(), middleware.SessionID(c))
	h.afterAction(c, err)
}

// PostModify handles POST /demo/modify.
func (h *Handler) PostModify(c *gin.Context) {
	_, err := h.wizard.Modify(c.Request.Context(), middleware.SessionID(c))
	h.afterAction(c, err)
}

// PostReset handles POST /demo/reset.
func (h *Handler) PostReset(c *gin.Context) {
	_, err := h.wizard.Reset(c.Request.Context(), middleware.SessionID(c))
	h.afterAction(c, err)
}

// afterAction redirects back to the demo page.
func (h *Handler) afterAction(c *gin.Context, err error) {
	if err != nil {
		h.failure(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/demo")
}

// failure renders err. A submission already in flight is not an error for
// the browser: the page shows the loader.
func (h *Handler) failure(c *gin.Context, err error) {
	var vErr *form.ValidationError
	switch {
	case errors.Is(err, wizard.ErrSubmitInFlight):
		c.Redirect(http.StatusSeeOther, "/demo")
	case errors.Is(err, wizard.ErrUnknownPreset):
		h.renderError(c, http.StatusNotFound, "This demonstration patient does not exist.")
	case errors.As(err, &vErr), errors.Is(err, wizard.ErrInvalidField), errors.Is(err, form.ErrUnknownField):
		s, serr := h.wizard.Snapshot(c.Request.Context(), middleware.SessionID(c))
		if serr != nil {
			h.failure(c, serr)
			return
		}
		h.renderDemo(c, http.StatusBadRequest, s, formErrorMessage(err, vErr))
	default:
		h.logger.WithError(err).WithField("session_id", middleware.SessionID(c)).Error("Wizard operation failed")
		_ = c.Error(err)
		h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

func formErrorMessage(err error, vErr *form.ValidationError) string {
	if vErr == nil {
		return err.Error()
	}
	label := string(vErr.Field)
	if cfg, lerr := form.Lookup(vErr.Field); lerr == nil {
		label = cfg.Label
	}
	return label + ": " + vErr.Message
}
