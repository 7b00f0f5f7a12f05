package form

import (
	"fmt"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Preset is a fully populated record used to fill and submit the wizard in
// one click.
type Preset struct {
	ID          string               `json:"id"`
	Label       string               `json:"label"`
	Description string               `json:"description"`
	Color       string               `json:"color"`
	Record      models.PatientRecord `json:"data"`
}

// Presets are the demonstration patients.
var Presets = []Preset{
	{
		ID:          "healthy",
		Label:       "Healthy patient",
		Description: "35 years old, athletic, no risk factor",
		Color:       "emerald",
		Record: models.PatientRecord{
			Age: 35, Sex: 1, ChestPainType: 3, BP: 120, Cholesterol: 180,
			FBSOver120: 0, EKGResults: 0, MaxHR: 185, ExerciseAngina: 0,
			STDepression: 0, SlopeOfST: 1, NumberOfVessels: 0, Thallium: 3,
		},
	},
	{
		ID:          "moderate",
		Label:       "Moderate patient",
		Description: "55 years old, high cholesterol, ECG anomaly",
		Color:       "warning",
		Record: models.PatientRecord{
			Age: 55, Sex: 1, ChestPainType: 2, BP: 145, Cholesterol: 260,
			FBSOver120: 1, EKGResults: 1, MaxHR: 140, ExerciseAngina: 0,
			STDepression: 1.5, SlopeOfST: 2, NumberOfVessels: 1, Thallium: 3,
		},
	},
	{
		ID:          "high_risk",
		Label:       "High-risk patient",
		Description: "65 years old, angina, abnormal thallium, 3 vessels",
		Color:       "rose",
		Record: models.PatientRecord{
			Age: 65, Sex: 1, ChestPainType: 4, BP: 160, Cholesterol: 300,
			FBSOver120: 1, EKGResults: 2, MaxHR: 110, ExerciseAngina: 1,
			STDepression: 3.5, SlopeOfST: 3, NumberOfVessels: 3, Thallium: 7,
		},
	},
}

// FindPreset returns the preset with the given id.
func FindPreset(id string) (Preset, error) {
	for _, p := range Presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("preset %q not found", id)
}
