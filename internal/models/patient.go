package models

import "fmt"

// Field names one of the thirteen raw patient attributes. The string value
// is the JSON key expected by the prediction service.
type Field string

const (
	FieldAge             Field = "age"
	FieldSex             Field = "sex"
	FieldChestPainType   Field = "chest_pain_type"
	FieldBP              Field = "bp"
	FieldCholesterol     Field = "cholesterol"
	FieldFBSOver120      Field = "fbs_over_120"
	FieldEKGResults      Field = "ekg_results"
	FieldMaxHR           Field = "max_hr"
	FieldExerciseAngina  Field = "exercise_angina"
	FieldSTDepression    Field = "st_depression"
	FieldSlopeOfST       Field = "slope_of_st"
	FieldNumberOfVessels Field = "number_of_vessels_fluro"
	FieldThallium        Field = "thallium"
)

// AllFields lists the raw attributes in the order the scoring service
// builds its feature vector.
var AllFields = []Field{
	FieldAge,
	FieldSex,
	FieldChestPainType,
	FieldBP,
	FieldCholesterol,
	FieldFBSOver120,
	FieldEKGResults,
	FieldMaxHR,
	FieldExerciseAngina,
	FieldSTDepression,
	FieldSlopeOfST,
	FieldNumberOfVessels,
	FieldThallium,
}

// ParseField resolves a field from its JSON key.
func ParseField(name string) (Field, error) {
	for _, f := range AllFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown patient field %q", name)
}

// PatientRecord holds the raw clinical attributes of one patient. All
// attributes are numeric; categorical codes are carried as whole numbers.
type PatientRecord struct {
	Age             float64 `json:"age"`
	Sex             float64 `json:"sex"`
	ChestPainType   float64 `json:"chest_pain_type"`
	BP              float64 `json:"bp"`
	Cholesterol     float64 `json:"cholesterol"`
	FBSOver120      float64 `json:"fbs_over_120"`
	EKGResults      float64 `json:"ekg_results"`
	MaxHR           float64 `json:"max_hr"`
	ExerciseAngina  float64 `json:"exercise_angina"`
	STDepression    float64 `json:"st_depression"`
	SlopeOfST       float64 `json:"slope_of_st"`
	NumberOfVessels float64 `json:"number_of_vessels_fluro"`
	Thallium        float64 `json:"thallium"`
}

func (p *PatientRecord) ref(f Field) (*float64, bool) {
	switch f {
	case FieldAge:
		return &p.Age, true
	case FieldSex:
		return &p.Sex, true
	case FieldChestPainType:
		return &p.ChestPainType, true
	case FieldBP:
		return &p.BP, true
	case FieldCholesterol:
		return &p.Cholesterol, true
	case FieldFBSOver120:
		return &p.FBSOver120, true
	case FieldEKGResults:
		return &p.EKGResults, true
	case FieldMaxHR:
		return &p.MaxHR, true
	case FieldExerciseAngina:
		return &p.ExerciseAngina, true
	case FieldSTDepression:
		return &p.STDepression, true
	case FieldSlopeOfST:
		return &p.SlopeOfST, true
	case FieldNumberOfVessels:
		return &p.NumberOfVessels, true
	case FieldThallium:
		return &p.Thallium, true
	}
	return nil, false
}

// Get returns the value of a single field.
func (p PatientRecord) Get(f Field) (float64, bool) {
	v, ok := p.ref(f)
	if !ok {
		return 0, false
	}
	return *v, true
}

// With returns a copy of the record with exactly one field replaced.
func (p PatientRecord) With(f Field, value float64) (PatientRecord, bool) {
	v, ok := p.ref(f)
	if !ok {
		return p, false
	}
	*v = value
	return p, true
}

// Values returns the record as a field-keyed map.
func (p PatientRecord) Values() map[Field]float64 {
	out := make(map[Field]float64, len(AllFields))
	for _, f := range AllFields {
		v, _ := p.Get(f)
		out[f] = v
	}
	return out
}
