package wizard

import (
	"time"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Action is an input to Reduce. The set of actions is closed.
type Action interface {
	actionName() string
}

// SetField replaces one field of the record.
type SetField struct {
	Field models.Field
	Value float64
}

// NextStep advances one step, stopping at the last.
type NextStep struct{}

// PrevStep goes back one step, stopping at the first.
type PrevStep struct{}

// GoToStep jumps to a step and discards any displayed outcome.
type GoToStep struct {
	Step int
}

// LoadPreset replaces the whole record and jumps to the last step.
type LoadPreset struct {
	Record models.PatientRecord
}

// SubmitStart marks a submission as in flight.
type SubmitStart struct {
	At time.Time
}

// SubmitSuccess records the outcome of a successful submission.
type SubmitSuccess struct {
	Result *models.PredictionResult
}

// SubmitError records the message of a failed submission.
type SubmitError struct {
	Message string
}

// Reset restores the initial state, keeping only the health flag.
type Reset struct{}

// SetAPIHealth records the last health check.
type SetAPIHealth struct {
	Healthy bool
}

func (SetField) actionName() string      { return "set_field" }
func (NextStep) actionName() string      { return "next_step" }
func (PrevStep) actionName() string      { return "prev_step" }
func (GoToStep) actionName() string      { return "go_to_step" }
func (LoadPreset) actionName() string    { return "load_preset" }
func (SubmitStart) actionName() string   { return "submit_start" }
func (SubmitSuccess) actionName() string { return "submit_success" }
func (SubmitError) actionName() string   { return "submit_error" }
func (Reset) actionName() string         { return "reset" }
func (SetAPIHealth) actionName() string  { return "set_api_health" }

// editsForm reports whether a changes the record or the displayed step.
// Those actions are refused while a submission is in flight so the record
// that failed is the one kept for Retry.
func editsForm(a Action) bool {
	switch a.(type) {
	case SetField, NextStep, PrevStep, GoToStep, LoadPreset:
		return true
	default:
		return false
	}
}

// ActionName returns the log name of an action.
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
