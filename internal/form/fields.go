package form

import "github.com/irfndi/heartguard-ai-go/internal/models"

var yesNo = [2]Option{
	{Value: 0, Label: "No"},
	{Value: 1, Label: "Yes"},
}

// Fields configures every patient attribute, in record order.
var Fields = []Config{
	{
		Field:        models.FieldAge,
		Label:        "Age",
		Description:  "Patient age in years",
		DefaultValue: 54,
		Kind: Slider{
			Min: 18, Max: 100, Step: 1, Unit: "years",
			Zones: &Zones{Green: Range{18, 45}, Orange: Range{45, 60}, Red: Range{60, 100}},
		},
	},
	{
		Field:        models.FieldSex,
		Label:        "Biological sex",
		Description:  "Biological sex of the patient",
		DefaultValue: 1,
		Kind: Select{Options: []Option{
			{Value: 0, Label: "Female"},
			{Value: 1, Label: "Male"},
		}},
	},
	{
		Field:        models.FieldChestPainType,
		Label:        "Chest pain type",
		Description:  "Classification of the pain felt in the chest",
		DefaultValue: 4,
		Kind: Select{Options: []Option{
			{Value: 1, Label: "Typical angina", Description: "Classic exertional pain, relieved by rest"},
			{Value: 2, Label: "Atypical angina", Description: "Unusual pain, variable location"},
			{Value: 3, Label: "Non-anginal", Description: "Probably not cardiac in origin"},
			{Value: 4, Label: "Asymptomatic", Description: "No pain, incidental finding"},
		}},
	},
	{
		Field:        models.FieldBP,
		Label:        "Resting blood pressure",
		Description:  "Systolic blood pressure measured at rest",
		DefaultValue: 130,
		Kind: Slider{
			Min: 60, Max: 200, Step: 5, Unit: "mmHg",
			Zones: &Zones{Green: Range{60, 130}, Orange: Range{130, 150}, Red: Range{150, 200}},
		},
	},
	{
		Field:        models.FieldCholesterol,
		Label:        "Serum cholesterol",
		Description:  "Total cholesterol in the blood",
		DefaultValue: 243,
		Kind: Slider{
			Min: 100, Max: 600, Step: 5, Unit: "mg/dL",
			Zones: &Zones{Green: Range{100, 200}, Orange: Range{200, 280}, Red: Range{280, 600}},
		},
	},
	{
		Field:        models.FieldFBSOver120,
		Label:        "Fasting blood sugar > 120 mg/dL",
		Description:  "Indicator of potential diabetes",
		DefaultValue: 0,
		Kind:         Toggle{Options: yesNo},
	},
	{
		Field:        models.FieldEKGResults,
		Label:        "Resting ECG",
		Description:  "Electrocardiogram recorded at rest",
		DefaultValue: 0,
		Kind: Select{Options: []Option{
			{Value: 0, Label: "Normal", Description: "No abnormality detected"},
			{Value: 1, Label: "ST-T abnormality", Description: "T wave inversion or ST elevation/depression"},
			{Value: 2, Label: "LV hypertrophy", Description: "Left ventricular hypertrophy (Estes criteria)"},
		}},
	},
	{
		Field:        models.FieldMaxHR,
		Label:        "Maximum heart rate",
		Description:  "Maximum heart rate reached during the stress test",
		DefaultValue: 157,
		Kind: Slider{
			Min: 60, Max: 220, Step: 1, Unit: "bpm",
			Zones: &Zones{Red: Range{60, 120}, Orange: Range{120, 150}, Green: Range{150, 220}},
		},
	},
	{
		Field:        models.FieldExerciseAngina,
		Label:        "Exercise-induced angina",
		Description:  "Chest pain triggered by physical exercise",
		DefaultValue: 0,
		Kind:         Toggle{Options: yesNo},
	},
	{
		Field:        models.FieldSTDepression,
		Label:        "ST depression",
		Description:  "Exercise-induced ST segment depression relative to rest",
		DefaultValue: 0.1,
		Kind: Slider{
			Min: 0, Max: 6, Step: 0.1, Unit: "mm",
			Zones: &Zones{Green: Range{0, 1}, Orange: Range{1, 2.5}, Red: Range{2.5, 6}},
		},
	},
	{
		Field:        models.FieldSlopeOfST,
		Label:        "ST slope",
		Description:  "Slope of the peak exercise ST segment",
		DefaultValue: 1,
		Kind: Select{Options: []Option{
			{Value: 1, Label: "Upsloping", Description: "Usually normal"},
			{Value: 2, Label: "Flat", Description: "Possibly abnormal"},
			{Value: 3, Label: "Downsloping", Description: "Often pathological"},
		}},
	},
	{
		Field:        models.FieldNumberOfVessels,
		Label:        "Vessels coloured (fluoroscopy)",
		Description:  "Number of major vessels coloured by fluoroscopy",
		DefaultValue: 0,
		Kind: Select{Options: []Option{
			{Value: 0, Label: "0 vessels"},
			{Value: 1, Label: "1 vessel"},
			{Value: 2, Label: "2 vessels"},
			{Value: 3, Label: "3 vessels"},
		}},
	},
	{
		Field:        models.FieldThallium,
		Label:        "Thallium test",
		Description:  "Myocardial perfusion scan result",
		DefaultValue: 3,
		Kind: Select{Options: []Option{
			{Value: 3, Label: "Normal", Description: "Normal cardiac perfusion"},
			{Value: 6, Label: "Fixed defect", Description: "Scar from a previous infarction"},
			{Value: 7, Label: "Reversible defect", Description: "Active ischemia, highest risk"},
		}},
	},
}

// DefaultRecord returns a record filled with each field's default, the
// dataset medians.
func DefaultRecord() models.PatientRecord {
	var p models.PatientRecord
	for _, c := range Fields {
		p, _ = p.With(c.Field, c.DefaultValue)
	}
	return p
}
