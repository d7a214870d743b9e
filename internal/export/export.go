// Package export writes the structured record of a run for downstream
// display. The record is a single JSON object with a fixed key order.
//
// smoking_status holds the category as entered ("never smoked"). The
// underscored form ("never_smoked") only exists on the predictor command
// line; viewers that matched the underscored value must accept the spaced one.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dialert/internal/advice"
	"dialert/internal/logging"
	"dialert/internal/types"

	"go.uber.org/zap"
)

// ErrExport means the record could not be written.
var ErrExport = errors.New("could not write result record")

// DefaultPath is where the record is written when nothing else is configured.
const DefaultPath = "result.txt"

// Record is the serialized form of a RunOutcome. Field order is the key
// order of the document.
type Record struct {
	Gender          string   `json:"gender"`
	Age             float64  `json:"age"`
	Hypertension    int      `json:"hypertension"`
	HeartDisease    int      `json:"heart_disease"`
	SmokingStatus   string   `json:"smoking_status"`
	BMI             float64  `json:"bmi"`
	HbA1c           float64  `json:"hba1c"`
	Glucose         float64  `json:"glucose"`
	Probability     string   `json:"probability"`
	RiskLevel       string   `json:"risk_level"`
	Recommendations []string `json:"recommendations"`
}

// NewRecord flattens outcome. Recommendations lose their bullet marker and
// any double quotes; the risk label is kept exactly as the predictor sent it.
func NewRecord(outcome types.RunOutcome) Record {
	p := outcome.Patient
	return Record{
		Gender:          p.Gender,
		Age:             p.Age,
		Hypertension:    p.Hypertension,
		HeartDisease:    p.HeartDisease,
		SmokingStatus:   p.SmokingStatus,
		BMI:             p.BMI,
		HbA1c:           p.HbA1c,
		Glucose:         p.Glucose,
		Probability:     outcome.Prediction.Probability,
		RiskLevel:       outcome.Prediction.RiskLabel,
		Recommendations: advice.Strip(outcome.Recommendations),
	}
}

// Encode writes the record of outcome to w as indented JSON.
func Encode(w io.Writer, outcome types.RunOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewRecord(outcome))
}

// Exporter hands a finished run to its consumer.
type Exporter interface {
	Export(outcome types.RunOutcome) error
}

// FileExporter writes the record to a file, replacing any previous one.
type FileExporter struct {
	Path string
}

// NewFileExporter creates an exporter for path, or DefaultPath when empty.
func NewFileExporter(path string) *FileExporter {
	if path == "" {
		path = DefaultPath
	}
	return &FileExporter{Path: path}
}

// Export encodes outcome and writes it to e.Path. Every failure wraps
// ErrExport.
func (e *FileExporter) Export(outcome types.RunOutcome) error {
	var buf bytes.Buffer
	if err := Encode(&buf, outcome); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExport, e.Path, err)
	}

	if dir := filepath.Dir(e.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrExport, e.Path, err)
		}
	}
	if err := os.WriteFile(e.Path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExport, e.Path, err)
	}

	logging.Get(logging.CategoryExport).Info("record written",
		zap.String("path", e.Path),
		zap.Int("bytes", buf.Len()))
	return nil
}
