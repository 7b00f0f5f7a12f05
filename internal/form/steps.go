package form

import (
	"fmt"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Step groups the fields shown on one page of the wizard.
type Step struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Fields      []models.Field `json:"fields"`
}

// Steps is the ordered list of wizard pages.
var Steps = []Step{
	{
		ID:          "profile",
		Label:       "Profile",
		Description: "Demographic information",
		Fields:      []models.Field{models.FieldAge, models.FieldSex},
	},
	{
		ID:          "clinical",
		Label:       "Clinical",
		Description: "Baseline clinical data",
		Fields:      []models.Field{models.FieldBP, models.FieldCholesterol, models.FieldFBSOver120, models.FieldMaxHR},
	},
	{
		ID:          "cardiac",
		Label:       "Cardiac",
		Description: "Cardiac examinations",
		Fields:      []models.Field{models.FieldChestPainType, models.FieldEKGResults, models.FieldThallium, models.FieldNumberOfVessels},
	},
	{
		ID:          "stress",
		Label:       "Stress test",
		Description: "Exercise test results",
		Fields:      []models.Field{models.FieldExerciseAngina, models.FieldSTDepression, models.FieldSlopeOfST},
	},
}

// StepCount is the number of wizard pages.
func StepCount() int {
	return len(Steps)
}

// LastStep is the index of the final wizard page.
func LastStep() int {
	return len(Steps) - 1
}

// StepAt returns the step at index i.
func StepAt(i int) (Step, error) {
	if i < 0 || i >= len(Steps) {
		return Step{}, fmt.Errorf("step %d out of range [0, %d]", i, LastStep())
	}
	return Steps[i], nil
}

// ConfigsFor returns the field configurations of a step, in display order.
func (s Step) ConfigsFor() []Config {
	out := make([]Config, 0, len(s.Fields))
	for _, f := range s.Fields {
		if c, err := Lookup(f); err == nil {
			out = append(out, c)
		}
	}
	return out
}
