package wizard

import (
	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/form"
)

// View is a State augmented with what the pages and the JSON API display.
type View struct {
	State
	Phase       Phase                      `json:"phase"`
	CurrentStep form.Step                  `json:"current_step"`
	StepCount   int                        `json:"step_count"`
	IsLastStep  bool                       `json:"is_last_step"`
	Derived     features.DerivedFeatureSet `json:"derived_features"`
}

// NewView builds the View of s. Derived features are recomputed from the
// record every time.
func NewView(s State) View {
	return View{
		State:       s,
		Phase:       s.Phase(),
		CurrentStep: s.CurrentStep(),
		StepCount:   form.StepCount(),
		IsLastStep:  s.IsLastStep(),
		Derived:     features.Derive(s.Record),
	}
}
