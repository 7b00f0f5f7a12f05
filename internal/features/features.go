// Package features mirrors the scoring service's feature engineering so the
// demo form can preview the derived attributes while the user types.
package features

import (
	"math"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Codes used by the composite risk indicators.
const (
	ThalliumReversibleDefect = 7
	ChestPainAsymptomatic    = 4
	SlopeFlat                = 2
	maxPredictedHR           = 220
)

// DerivedFeatureSet holds the seven engineered attributes computed from a
// patient record.
type DerivedFeatureSet struct {
	HRReserve     float64 `json:"hr_reserve"`
	BPCholRatio   float64 `json:"bp_chol_ratio"`
	StressScore   float64 `json:"stress_score"`
	AgeXMaxHR     float64 `json:"age_x_maxhr"`
	AgeDecade     float64 `json:"age_decade"`
	AgeHRRatio    float64 `json:"age_hr_ratio"`
	RiskComposite int     `json:"risk_composite"`
}

// Derive computes the engineered features of a patient record. The
// formulas must stay identical to the scoring service's own pipeline.
func Derive(p models.PatientRecord) DerivedFeatureSet {
	stressFactor := 1.0
	if p.ExerciseAngina == 1 {
		stressFactor = 2
	}

	return DerivedFeatureSet{
		HRReserve:     (maxPredictedHR - p.Age) - p.MaxHR,
		BPCholRatio:   p.BP / (p.Cholesterol + 1),
		StressScore:   p.STDepression * stressFactor,
		AgeXMaxHR:     p.Age * p.MaxHR,
		AgeDecade:     math.Floor(p.Age/10) * 10,
		AgeHRRatio:    p.Age / p.MaxHR,
		RiskComposite: RiskComposite(p),
	}
}

// RiskComposite counts the five binary risk indicators that are set.
func RiskComposite(p models.PatientRecord) int {
	score := 0
	for _, hit := range []bool{
		p.Thallium == ThalliumReversibleDefect,
		p.ChestPainType == ChestPainAsymptomatic,
		p.NumberOfVessels > 0,
		p.ExerciseAngina == 1,
		p.SlopeOfST >= SlopeFlat,
	} {
		if hit {
			score++
		}
	}
	return score
}

// Values returns the derived features keyed by their service-side name.
func (d DerivedFeatureSet) Values() map[string]float64 {
	return map[string]float64{
		"hr_reserve":     d.HRReserve,
		"bp_chol_ratio":  d.BPCholRatio,
		"stress_score":   d.StressScore,
		"age_x_maxhr":    d.AgeXMaxHR,
		"age_decade":     d.AgeDecade,
		"age_hr_ratio":   d.AgeHRRatio,
		"risk_composite": float64(d.RiskComposite),
	}
}
