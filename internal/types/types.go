// Package types provides the records shared by the intake, prediction,
// recommendation and export stages of a dialert run.
package types

// Accepted category values. Comparison is always done on the lowercase form.
var (
	Genders        = []string{"male", "female", "other"}
	SmokingHistory = []string{"formerly smoked", "never smoked", "smokes", "unknown"}
)

// PatientRecord is the operator-supplied input for one run.
// It is built field by field during intake and passed by value afterwards.
type PatientRecord struct {
	Gender        string  // lowercase, one of Genders
	Age           float64 // >= 0
	Hypertension  int     // 0 or 1
	HeartDisease  int     // 0 or 1
	SmokingStatus string  // lowercase, one of SmokingHistory
	BMI           float64
	HbA1c         float64
	Glucose       float64
}

// PredictionResult is the parsed output of the predictor.
// Probability is kept as the predictor's text; it is only ever redisplayed.
type PredictionResult struct {
	Probability string
	RiskLabel   string
}

// RunOutcome aggregates everything one run produced.
type RunOutcome struct {
	Patient         PatientRecord
	Prediction      PredictionResult
	Recommendations []string // bulleted lines, see advice.Recommend
}
