package features

// Descriptor documents one engineered feature for the data exploration page.
type Descriptor struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Formula     string `json:"formula"`
	Description string `json:"description"`
}

// Descriptors lists the engineered features in derivation order.
var Descriptors = []Descriptor{
	{
		Name:        "hr_reserve",
		Label:       "Heart-rate reserve",
		Formula:     "(220 - age) - max_hr",
		Description: "Gap between the theoretical maximum heart rate and the rate reached. A low value points to poor cardiac adaptation.",
	},
	{
		Name:        "bp_chol_ratio",
		Label:       "Pressure / cholesterol ratio",
		Formula:     "bp / (cholesterol + 1)",
		Description: "Resting blood pressure relative to total cholesterol, normalising the vascular interaction.",
	},
	{
		Name:        "stress_score",
		Label:       "Stress score",
		Formula:     "st_depression x (2 if angina, else 1)",
		Description: "Amplifies ST depression when exercise angina is present to capture the severity of cardiac stress.",
	},
	{
		Name:        "age_x_maxhr",
		Label:       "Age x max heart rate",
		Formula:     "age x max_hr",
		Description: "A high maximum heart rate is expected in young patients but abnormal in older ones.",
	},
	{
		Name:        "age_decade",
		Label:       "Age decade",
		Formula:     "floor(age / 10) x 10",
		Description: "Ten-year buckets that capture risk thresholds tied to decades of life.",
	},
	{
		Name:        "age_hr_ratio",
		Label:       "Age / heart-rate ratio",
		Formula:     "age / max_hr",
		Description: "A high ratio flags an older patient with a low maximum heart rate, a marker of cardiac deconditioning.",
	},
	{
		Name:        "risk_composite",
		Label:       "Composite risk score",
		Formula:     "(thallium=7) + (chest_pain=4) + (vessels>0) + (angina=1) + (slope>=2)",
		Description: "Sum of the five most discriminating binary indicators. Ranked first by SHAP importance (11%).",
	},
}

// Lookup returns the descriptor of an engineered feature.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
