package assess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dialert/internal/advice"
	"dialert/internal/export"
	"dialert/internal/intake"
	"dialert/internal/predict"
	"dialert/internal/report"
	"dialert/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionInput = "Male\n45\n1\n0\nsmokes\n28\n6.0\n130\n"

func fixedPredictor(prob, label string) predict.Predictor {
	return predict.Func(func(ctx context.Context, rec types.PatientRecord) (types.PredictionResult, error) {
		return types.PredictionResult{Probability: prob, RiskLabel: label}, nil
	})
}

type failingExporter struct{}

func (failingExporter) Export(types.RunOutcome) error {
	return fmt.Errorf("%w: /readonly/result.txt: permission denied", export.ErrExport)
}

func newRunner(t *testing.T, input string, p predict.Predictor, e export.Exporter, out *bytes.Buffer) *Runner {
	t.Helper()
	r, err := NewRunner(Deps{
		Source:    intake.NewPrompter(strings.NewReader(input), out),
		Predictor: p,
		Renderer:  report.NewRenderer(report.FormatPlain, 0),
		Exporter:  e,
		Out:       out,
	})
	require.NoError(t, err)
	return r
}

func TestRun_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	var out bytes.Buffer
	r := newRunner(t, sessionInput, fixedPredictor("60.0", "Moderate Risk"), export.NewFileExporter(path), &out)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.PatientRecord{
		Gender: "male", Age: 45, Hypertension: 1, HeartDisease: 0,
		SmokingStatus: "smokes", BMI: 28, HbA1c: 6.0, Glucose: 130,
	}, outcome.Patient)
	assert.Equal(t, "Moderate Risk", outcome.Prediction.RiskLabel)

	transcript := out.String()
	assert.Contains(t, transcript, intake.GenderField.Prompt)
	assert.Contains(t, transcript, intake.GlucoseField.Prompt)
	assert.Contains(t, transcript, report.RunningNotice)
	assert.True(t, strings.HasSuffix(transcript, report.Plain(outcome)))
	assert.Contains(t, transcript, "Diabetes Risk Probability: 60.0%\n")
	assert.Contains(t, transcript, "Prediction: Moderate Risk\n\n")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec export.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "60.0", rec.Probability)
	assert.Equal(t, "Moderate Risk", rec.RiskLevel)
	require.Len(t, rec.Recommendations, 8)
	assert.Equal(t, advice.Block(advice.SeverityModerate), rec.Recommendations[:5])
	assert.Equal(t, advice.Hypertension, rec.Recommendations[5])
	assert.Equal(t, advice.HighBMIAdvice, rec.Recommendations[6])
	assert.Equal(t, advice.PrediabeticAdvice, rec.Recommendations[7])
}

func TestRun_PredictorFailureStopsBeforeExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	var out bytes.Buffer
	failing := predict.Func(func(context.Context, types.PatientRecord) (types.PredictionResult, error) {
		return types.PredictionResult{}, fmt.Errorf("%w: exec: \"python\": not found", predict.ErrLaunch)
	})
	r := newRunner(t, sessionInput, failing, export.NewFileExporter(path), &out)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, predict.ErrLaunch)
	assert.NotContains(t, out.String(), "Diabetes Risk Probability")

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRun_ExportFailureKeepsOutcome(t *testing.T) {
	var out bytes.Buffer
	r := newRunner(t, sessionInput, fixedPredictor("12.5", "Low risk of Diabetes"), failingExporter{}, &out)

	outcome, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, export.ErrExport)
	assert.Equal(t, "12.5", outcome.Prediction.Probability)
	// The report is shown before the record is written.
	assert.Contains(t, out.String(), "Prediction: Low risk of Diabetes\n")
}

func TestRun_InputClosed(t *testing.T) {
	var out bytes.Buffer
	called := false
	p := predict.Func(func(context.Context, types.PatientRecord) (types.PredictionResult, error) {
		called = true
		return types.PredictionResult{}, nil
	})
	r := newRunner(t, "female\n30\n", p, failingExporter{}, &out)

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, intake.ErrInputClosed)
	assert.False(t, called)
}

func TestRun_RetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	input := "robot\nmale\n-3\n45\n2\n1\n0\nsometimes\nsmokes\n28\n6.0\n130\n"
	r := newRunner(t, input, fixedPredictor("60.0", "Moderate Risk"), export.NewFileExporter(filepath.Join(t.TempDir(), "r.txt")), &out)

	outcome, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out.String(), intake.InvalidNotice))
	assert.Equal(t, 45.0, outcome.Patient.Age)
}

func TestRun_CancelledDuringIntake(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	called := false
	p := predict.Func(func(context.Context, types.PatientRecord) (types.PredictionResult, error) {
		called = true
		return types.PredictionResult{}, nil
	})
	r, err := NewRunner(Deps{
		Source:    blockingSource{},
		Predictor: p,
		Renderer:  report.NewRenderer(report.FormatPlain, 0),
		Exporter:  failingExporter{},
		Out:       &out,
	})
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, intake.ErrInterrupted)
	assert.False(t, called)
	assert.NotContains(t, out.String(), report.RunningNotice)
}

// blockingSource waits for cancellation like a prompt on an idle terminal.
type blockingSource struct{}

func (blockingSource) AcquireRecord(ctx context.Context) (types.PatientRecord, error) {
	<-ctx.Done()
	return types.PatientRecord{}, fmt.Errorf("gender: %w: %v", intake.ErrInterrupted, ctx.Err())
}

func TestNewRunner_RequiresDeps(t *testing.T) {
	_, err := NewRunner(Deps{})
	assert.Error(t, err)
}
