// Package wizard sequences the demo form: step navigation, field edits,
// submission to the scoring service and display of the outcome.
//
// All transitions go through Reduce, a pure function. Controller wraps it
// with the side effects (prediction calls, health checks) and persists the
// state of each browser session through a Store.
package wizard

import (
	"fmt"
	"time"

	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Health is the tri-state reachability of the scoring service.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthUnhealthy
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Health) UnmarshalText(text []byte) error {
	switch string(text) {
	case "healthy":
		*h = HealthHealthy
	case "unhealthy":
		*h = HealthUnhealthy
	case "unknown", "":
		*h = HealthUnknown
	default:
		return fmt.Errorf("invalid health %q", text)
	}
	return nil
}

// Phase is the user-visible mode derived from a State.
type Phase string

const (
	PhaseEditing       Phase = "editing"
	PhaseSubmitting    Phase = "submitting"
	PhaseShowingResult Phase = "showing_result"
	PhaseShowingError  Phase = "showing_error"
)

// State is the complete wizard state of one session.
type State struct {
	Step      int                      `json:"step"`
	Record    models.PatientRecord     `json:"record"`
	Loading   bool                     `json:"loading"`
	Result    *models.PredictionResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	APIHealth Health                   `json:"api_health"`

	// Attempt increases with every accepted submission so a late outcome
	// can be matched to the submission that produced it.
	Attempt     uint64    `json:"attempt"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// Initial returns the state of a fresh session.
func Initial() State {
	return State{
		Step:      0,
		Record:    form.DefaultRecord(),
		APIHealth: HealthUnknown,
	}
}

// Phase reports which screen the state corresponds to.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseSubmitting
	case s.Result != nil:
		return PhaseShowingResult
	case s.Error != "":
		return PhaseShowingError
	default:
		return PhaseEditing
	}
}

// IsLastStep reports whether the final step is displayed.
func (s State) IsLastStep() bool {
	return s.Step == form.LastStep()
}

// CurrentStep returns the displayed step.
func (s State) CurrentStep() form.Step {
	step, err := form.StepAt(clampStep(s.Step))
	if err != nil {
		return form.Steps[0]
	}
	return step
}

func clampStep(step int) int {
	if step < 0 {
		return 0
	}
	if last := form.LastStep(); step > last {
		return last
	}
	return step
}
