// Package predict bridges a PatientRecord to the external risk model.
//
// The model is an opaque program invoked with eight positional arguments. It
// answers with a single "<percent>,<label>" line on stdout. That wire format
// is unversioned, so it lives behind the Predictor interface; swapping in an
// in-process model only needs a Func.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dialert/internal/logging"
	"dialert/internal/tactile"
	"dialert/internal/types"

	"go.uber.org/zap"
)

var (
	// ErrLaunch means the predictor process could not be started.
	ErrLaunch = errors.New("predictor could not be launched")

	// ErrMalformedOutput means the predictor output had no field separator.
	ErrMalformedOutput = errors.New("invalid prediction output format")

	// ErrKilled means the predictor was stopped by a timeout or cancellation.
	ErrKilled = errors.New("predictor was terminated")
)

// Separator splits the probability text from the risk label.
const Separator = ","

// Predictor estimates the diabetes risk of a patient.
type Predictor interface {
	Predict(ctx context.Context, rec types.PatientRecord) (types.PredictionResult, error)
}

// Func adapts a plain function to the Predictor interface.
type Func func(ctx context.Context, rec types.PatientRecord) (types.PredictionResult, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, rec types.PatientRecord) (types.PredictionResult, error) {
	return f(ctx, rec)
}

// Options configures how the predictor program is launched.
type Options struct {
	Binary           string        // program name, e.g. "python"
	Args             []string      // leading arguments, e.g. the script path
	WorkingDirectory string        // empty runs in the current directory
	Timeout          time.Duration // zero waits indefinitely
	// SlowThreshold is the call duration above which a warning is logged.
	// Zero means DefaultSlowThreshold.
	SlowThreshold time.Duration
}

// DefaultSlowThreshold flags model calls that take longer than usual.
const DefaultSlowThreshold = 10 * time.Second

// DefaultOptions runs "python predict.py" with no timeout.
func DefaultOptions() Options {
	return Options{
		Binary: "python",
		Args:   []string{"predict.py"},
	}
}

// ProcessPredictor runs the model as a child process.
type ProcessPredictor struct {
	executor tactile.Executor
	opts     Options
}

// NewProcessPredictor creates a predictor that runs through executor.
func NewProcessPredictor(executor tactile.Executor, opts Options) *ProcessPredictor {
	return &ProcessPredictor{executor: executor, opts: opts}
}

// Command returns the command line used for rec.
func (p *ProcessPredictor) Command(rec types.PatientRecord) tactile.Command {
	args := make([]string, 0, len(p.opts.Args)+8)
	args = append(args, p.opts.Args...)
	args = append(args, BuildArguments(rec)...)
	return tactile.Command{
		Binary:           p.opts.Binary,
		Arguments:        args,
		WorkingDirectory: p.opts.WorkingDirectory,
		Timeout:          p.opts.Timeout,
	}
}

// Predict runs the model once and parses its answer. There are no retries.
func (p *ProcessPredictor) Predict(ctx context.Context, rec types.PatientRecord) (types.PredictionResult, error) {
	log := logging.Get(logging.CategoryPredict)
	cmd := p.Command(rec)
	log.Debug("invoking predictor", zap.String("command", cmd.CommandString()))

	threshold := p.opts.SlowThreshold
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}
	timer := logging.StartTimer(logging.CategoryPredict, "predictor call")
	result, err := p.executor.Execute(ctx, cmd)
	timer.StopWithThreshold(threshold)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	if result.IsError() {
		return types.PredictionResult{}, fmt.Errorf("%w: %s", ErrLaunch, result.Error)
	}
	if result.Killed {
		return types.PredictionResult{}, fmt.Errorf("%w: %s", ErrKilled, result.KillReason)
	}
	if result.IsNonZeroExit() {
		// The exit status is not part of the contract; the output decides.
		log.Warn("predictor exited non-zero",
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", result.Stderr))
	}

	prediction, err := ParseOutput(result.Stdout)
	if err != nil {
		log.Error("unparseable predictor output", zap.String("stdout", result.Stdout), zap.String("stderr", result.Stderr))
		return types.PredictionResult{}, err
	}

	log.Info("prediction received",
		zap.String("probability", prediction.Probability),
		zap.String("label", prediction.RiskLabel),
		zap.Duration("duration", result.Duration))
	return prediction, nil
}

// BuildArguments renders rec as the eight positional predictor arguments:
// gender, age, hypertension, heart_disease, smoking_status, bmi, hba1c,
// glucose. Spaces in the smoking status become underscores so the value
// survives word splitting on the model side.
func BuildArguments(rec types.PatientRecord) []string {
	return []string{
		rec.Gender,
		FormatDecimal(rec.Age),
		strconv.Itoa(rec.Hypertension),
		strconv.Itoa(rec.HeartDisease),
		strings.ReplaceAll(rec.SmokingStatus, " ", "_"),
		FormatDecimal(rec.BMI),
		FormatDecimal(rec.HbA1c),
		FormatDecimal(rec.Glucose),
	}
}

// FormatDecimal renders f in the shortest plain decimal form ("45", "28.5").
func FormatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseOutput splits "<percent>,<label>" at the first comma. The percent is
// returned as text, unchecked. The label loses trailing whitespace.
func ParseOutput(output string) (types.PredictionResult, error) {
	percent, label, found := strings.Cut(output, Separator)
	if !found {
		return types.PredictionResult{}, fmt.Errorf("%w: %q", ErrMalformedOutput, strings.TrimSpace(output))
	}
	return types.PredictionResult{
		Probability: percent,
		RiskLabel:   strings.TrimRight(label, " \t\r\n"),
	}, nil
}
