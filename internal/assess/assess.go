// Package assess runs one diabetes risk assessment end to end:
// intake, prediction, recommendations, report and export.
package assess

import (
	"context"
	"fmt"
	"io"

	"dialert/internal/advice"
	"dialert/internal/export"
	"dialert/internal/logging"
	"dialert/internal/predict"
	"dialert/internal/report"
	"dialert/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordSource supplies the patient record for a run.
type RecordSource interface {
	AcquireRecord(ctx context.Context) (types.PatientRecord, error)
}

// Deps are the collaborators of a Runner. All fields are required.
type Deps struct {
	Source    RecordSource
	Predictor predict.Predictor
	Renderer  *report.Renderer
	Exporter  export.Exporter
	Out       io.Writer // receives the running notice and the report
}

// Runner executes assessments. It holds no state between runs.
type Runner struct {
	deps Deps
}

// NewRunner validates deps and returns a runner.
func NewRunner(deps Deps) (*Runner, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("assess: record source is required")
	case deps.Predictor == nil:
		return nil, fmt.Errorf("assess: predictor is required")
	case deps.Renderer == nil:
		return nil, fmt.Errorf("assess: renderer is required")
	case deps.Exporter == nil:
		return nil, fmt.Errorf("assess: exporter is required")
	case deps.Out == nil:
		return nil, fmt.Errorf("assess: output writer is required")
	}
	return &Runner{deps: deps}, nil
}

// Run performs one assessment. Errors keep their sentinel kind so callers
// can match them with errors.Is.
func (r *Runner) Run(ctx context.Context) (types.RunOutcome, error) {
	runID := uuid.New().String()
	log := logging.Get(logging.CategoryAssess).With(zap.String("run_id", runID))
	timer := logging.StartTimer(logging.CategoryAssess, "run")
	defer timer.Stop()

	rec, err := r.deps.Source.AcquireRecord(ctx)
	if err != nil {
		return types.RunOutcome{}, err
	}
	log.Debug("record acquired",
		zap.String("gender", rec.Gender),
		zap.Float64("age", rec.Age),
		zap.Int("hypertension", rec.Hypertension),
		zap.Int("heart_disease", rec.HeartDisease),
		zap.String("smoking_status", rec.SmokingStatus),
		zap.Float64("bmi", rec.BMI),
		zap.Float64("hba1c", rec.HbA1c),
		zap.Float64("glucose", rec.Glucose))

	if _, err := io.WriteString(r.deps.Out, report.RunningNotice); err != nil {
		return types.RunOutcome{}, fmt.Errorf("failed to write output: %w", err)
	}

	pred, err := r.deps.Predictor.Predict(ctx, rec)
	if err != nil {
		log.Error("prediction failed", zap.Error(err))
		return types.RunOutcome{}, err
	}

	outcome := types.RunOutcome{
		Patient:    rec,
		Prediction: pred,
		Recommendations: advice.Recommend(pred.RiskLabel,
			rec.Hypertension, rec.HeartDisease, rec.BMI, rec.Glucose, rec.HbA1c),
	}
	log.Info("assessment complete",
		zap.String("probability", pred.Probability),
		zap.String("risk_label", pred.RiskLabel),
		zap.String("severity", string(advice.Classify(pred.RiskLabel))),
		zap.Int("recommendations", len(outcome.Recommendations)))

	if err := r.deps.Renderer.Write(r.deps.Out, outcome); err != nil {
		return outcome, fmt.Errorf("failed to write report: %w", err)
	}

	if err := r.deps.Exporter.Export(outcome); err != nil {
		log.Error("export failed", zap.Error(err))
		return outcome, err
	}
	return outcome, nil
}
