package web

import (
	"fmt"
	"strconv"

	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Zone colours of a slider value.
const (
	zoneGreen  = "green"
	zoneOrange = "orange"
	zoneRed    = "red"
)

type optionView struct {
	Value       string
	Label       string
	Description string
	Selected    bool
}

// fieldView is one wizard input ready for the template.
type fieldView struct {
	Name        string
	Label       string
	Description string
	Kind        string
	Value       string

	// Slider only.
	Min, Max, Step string
	Unit           string
	Zone           string

	Options []optionView
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newFieldView(cfg form.Config, record models.PatientRecord) fieldView {
	value, _ := record.Get(cfg.Field)
	fv := fieldView{
		Name:        string(cfg.Field),
		Label:       cfg.Label,
		Description: cfg.Description,
		Kind:        form.KindName(cfg.Kind),
		Value:       formatNumber(value),
	}

	switch k := cfg.Kind.(type) {
	case form.Slider:
		fv.Min = formatNumber(k.Min)
		fv.Max = formatNumber(k.Max)
		fv.Step = formatNumber(k.Step)
		fv.Unit = k.Unit
		fv.Zone = zoneOf(k.Zones, value)
	case form.Toggle:
		fv.Options = optionViews(k.Options[:], value)
	case form.Select:
		fv.Options = optionViews(k.Options, value)
	default:
		panic(fmt.Sprintf("web: field %s has unsupported kind %T", cfg.Field, cfg.Kind))
	}
	return fv
}

func optionViews(options []form.Option, value float64) []optionView {
	out := make([]optionView, 0, len(options))
	for _, o := range options {
		out = append(out, optionView{
			Value:       formatNumber(o.Value),
			Label:       o.Label,
			Description: o.Description,
			Selected:    o.Value == value,
		})
	}
	return out
}

func inRange(r form.Range, v float64) bool {
	if r.Low == 0 && r.High == 0 {
		return false
	}
	return v >= r.Low && v <= r.High
}

// zoneOf returns the zone containing v, or "" when the slider has none.
func zoneOf(z *form.Zones, v float64) string {
	if z == nil {
		return ""
	}
	switch {
	case inRange(z.Green, v):
		return zoneGreen
	case inRange(z.Orange, v):
		return zoneOrange
	case inRange(z.Red, v):
		return zoneRed
	default:
		return ""
	}
}

func stepFieldViews(step form.Step, record models.PatientRecord) []fieldView {
	configs := step.ConfigsFor()
	out := make([]fieldView, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, newFieldView(cfg, record))
	}
	return out
}

// parseStepValues reads the posted values of the fields of step. Fields
// missing from the form are skipped.
func parseStepValues(step form.Step, get func(string) (string, bool)) (map[models.Field]float64, error) {
	values := make(map[models.Field]float64, len(step.Fields))
	for _, f := range step.Fields {
		raw, ok := get(string(f))
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &form.ValidationError{Field: f, Message: fmt.Sprintf("%q is not a number", raw)}
		}
		values[f] = v
	}
	return values, nil
}
