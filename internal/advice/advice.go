// Package advice turns a risk label and a handful of clinical covariates
// into an ordered list of advisory statements.
//
// The output order is fixed: the severity block selected by the label, then
// hypertension, heart disease, BMI, glucose and finally HbA1c. Recommend is
// pure, so the same inputs always produce the same list.
package advice

import (
	"strings"
)

// Marker prefixes every advisory line in its bulleted form.
const Marker = "- "

// Severity is the block selected from the predictor's risk label.
type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

// Thresholds. BMI and glucose bounds are strict; HbA1c bounds are inclusive.
const (
	HighBMI          = 25.0
	LowBMI           = 18.5
	HighGlucose      = 140.0
	LowGlucose       = 70.0
	DiabeticHbA1c    = 6.5
	PrediabeticHbA1c = 5.7
)

var severityBlocks = map[Severity][]string{
	SeverityHigh: {
		"High risk detected. Please consult an endocrinologist or primary care doctor soon.",
		"Prioritize a low-carb, high-fiber diet and avoid sugary foods.",
		"Engage in daily physical activity (walking, yoga, or cardio).",
		"Monitor your glucose levels regularly and track symptoms.",
		"Manage stress and get adequate sleep (7-9 hours).",
	},
	SeverityModerate: {
		"Moderate risk detected. This is a good time to take preventive action.",
		"Make dietary changes: reduce intake of processed sugars and high-GI foods.",
		"Aim for at least 150 minutes of moderate exercise weekly.",
		"Schedule routine check-ups and consider testing HbA1c every few months.",
		"Maintain a healthy weight and quit smoking if applicable.",
	},
	SeverityLow: {
		"Low diabetes risk. Keep up the good habits!",
		"Continue eating a balanced diet with plenty of fruits and vegetables.",
		"Stay active and maintain regular health screenings.",
		"Avoid smoking and excessive consumption of sugary drinks.",
	},
	SeverityUnknown: {
		"Unable to determine recommendation due to unclear prediction result.",
	},
}

// Covariate statements.
const (
	Hypertension      = "Hypertension detected: Reduce salt intake, manage stress, and monitor BP regularly."
	HeartDisease      = "Heart disease present: Follow a heart-friendly diet, reduce cholesterol, and consult a cardiologist routinely."
	HighBMIAdvice     = "High BMI: Consider healthy weight loss through diet and exercise."
	LowBMIAdvice      = "Low BMI: Ensure you're getting enough nutrition to maintain a healthy weight."
	HighGlucoseAdvice = "Elevated blood glucose: Reduce sugar intake and monitor glucose regularly."
	LowGlucoseAdvice  = "Low blood glucose: Ensure proper carbohydrate intake to avoid hypoglycemia."
	DiabeticAdvice    = "HbA1c indicates diabetes: Maintain strict glucose control and consider medication."
	PrediabeticAdvice = "HbA1c in prediabetic range: Take preventive actions now to reduce diabetes risk."
	NormalHbA1cAdvice = "HbA1c is in normal range: Maintain current healthy habits."
)

// Classify selects the severity block for label. The keywords are tested
// case-insensitively as substrings in the order high, moderate, low; the
// first hit wins.
func Classify(label string) Severity {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "high"):
		return SeverityHigh
	case strings.Contains(lower, "moderate"):
		return SeverityModerate
	case strings.Contains(lower, "low"):
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Block returns the fixed statements of a severity, unbulleted.
func Block(s Severity) []string {
	block, ok := severityBlocks[s]
	if !ok {
		block = severityBlocks[SeverityUnknown]
	}
	return append([]string(nil), block...)
}

// Recommend returns the bulleted advisory lines for one patient.
func Recommend(label string, hypertension, heartDisease int, bmi, glucose, hba1c float64) []string {
	statements := Block(Classify(label))

	if hypertension == 1 {
		statements = append(statements, Hypertension)
	}
	if heartDisease == 1 {
		statements = append(statements, HeartDisease)
	}

	if bmi > HighBMI {
		statements = append(statements, HighBMIAdvice)
	} else if bmi < LowBMI {
		statements = append(statements, LowBMIAdvice)
	}

	if glucose > HighGlucose {
		statements = append(statements, HighGlucoseAdvice)
	} else if glucose < LowGlucose {
		statements = append(statements, LowGlucoseAdvice)
	}

	switch {
	case hba1c >= DiabeticHbA1c:
		statements = append(statements, DiabeticAdvice)
	case hba1c >= PrediabeticHbA1c:
		statements = append(statements, PrediabeticAdvice)
	default:
		statements = append(statements, NormalHbA1cAdvice)
	}

	lines := make([]string, len(statements))
	for i, s := range statements {
		lines[i] = Marker + s
	}
	return lines
}

// Text joins bulleted lines into the console form, one per line.
func Text(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Strip prepares bulleted lines for structured output. Only lines that start
// with the marker are kept; the marker and every double quote are removed so
// the text can be embedded in simple text-delimited formats.
func Strip(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, "-") {
			continue
		}
		cleaned := strings.TrimPrefix(line, Marker)
		if cleaned == line {
			cleaned = strings.TrimPrefix(line, "-")
		}
		out = append(out, strings.ReplaceAll(cleaned, `"`, ""))
	}
	return out
}
