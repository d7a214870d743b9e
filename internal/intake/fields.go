package intake

import "dialert/internal/types"

// FieldSpec describes one prompted field.
type FieldSpec struct {
	Name   string
	Kind   FieldKind
	Prompt string
}

// The eight patient fields, in acquisition order.
var (
	GenderField = FieldSpec{
		Name:   "gender",
		Kind:   Enum(types.Genders...),
		Prompt: "Enter gender (male/female/other): ",
	}
	AgeField = FieldSpec{
		Name:   "age",
		Kind:   DecimalAtLeast(0),
		Prompt: "Enter age: ",
	}
	HypertensionField = FieldSpec{
		Name:   "hypertension",
		Kind:   Binary(),
		Prompt: "Enter hypertension (0 = No, 1 = Yes): ",
	}
	HeartDiseaseField = FieldSpec{
		Name:   "heart_disease",
		Kind:   Binary(),
		Prompt: "Enter heart disease (0 = No, 1 = Yes): ",
	}
	SmokingField = FieldSpec{
		Name:   "smoking_status",
		Kind:   Enum(types.SmokingHistory...),
		Prompt: "Enter smoking status (formerly smoked/never smoked/smokes/unknown): ",
	}
	BMIField = FieldSpec{
		Name:   "bmi",
		Kind:   Decimal(),
		Prompt: "Enter BMI: ",
	}
	HbA1cField = FieldSpec{
		Name:   "hba1c",
		Kind:   Decimal(),
		Prompt: "Enter HbA1c Level: ",
	}
	GlucoseField = FieldSpec{
		Name:   "glucose",
		Kind:   Decimal(),
		Prompt: "Enter Blood Glucose Level: ",
	}
)

// PatientFields lists the fields in the order AcquireRecord asks for them.
func PatientFields() []FieldSpec {
	return []FieldSpec{
		GenderField,
		AgeField,
		HypertensionField,
		HeartDiseaseField,
		SmokingField,
		BMIField,
		HbA1cField,
		GlucoseField,
	}
}
