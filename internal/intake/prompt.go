package intake

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"dialert/internal/logging"
	"dialert/internal/types"

	"go.uber.org/zap"
)

// ErrInputClosed is returned when the input stream ends before a valid value
// was read. An interactive session only sees this on Ctrl-D or a closed pipe.
var ErrInputClosed = errors.New("input closed before a valid value was entered")

// ErrInterrupted is returned when the run is cancelled, typically by
// SIGINT or SIGTERM, while a prompt is waiting for input.
var ErrInterrupted = errors.New("interrupted while waiting for input")

// InvalidNotice is printed after every rejected attempt.
const InvalidNotice = "Invalid input. Please try again.\n"

// Prompter reads field values line by line.
//
// Acquire retries without limit: the operator cannot continue until the input
// is syntactically valid. The only ways out are a closed input stream and
// cancellation of the context.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	start sync.Once
	lines chan lineResult // fed by a single reader goroutine, closed after the last read
}

type lineResult struct {
	line string
	err  error
}

// NewPrompter creates a prompter over the given streams.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, lines: make(chan lineResult, 1)}
}

// Acquire prompts for spec until a valid line is read and returns its
// normalized value.
func (p *Prompter) Acquire(ctx context.Context, spec FieldSpec) (Value, error) {
	log := logging.Get(logging.CategoryIntake)

	for attempt := 1; ; attempt++ {
		if _, err := io.WriteString(p.out, spec.Prompt); err != nil {
			return Value{}, fmt.Errorf("failed to write prompt: %w", err)
		}

		line, err := p.readLine(ctx)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", spec.Name, err)
		}

		v, err := Normalize(spec.Kind, line)
		if err == nil {
			log.Debug("field accepted", zap.String("field", spec.Name), zap.Int("attempts", attempt))
			return v, nil
		}

		log.Debug("field rejected", zap.String("field", spec.Name), zap.Int("attempt", attempt))
		if _, err := io.WriteString(p.out, InvalidNotice); err != nil {
			return Value{}, fmt.Errorf("failed to write notice: %w", err)
		}
	}
}

// readLine returns the next line; Normalize trims the terminator. A final line with
// no newline is still returned; only a read that yields nothing at EOF
// counts as a closed stream. A blocked read is abandoned when ctx is done.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	p.start.Do(func() { go p.readLoop() })

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrInterrupted, ctx.Err())
	case r, ok := <-p.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				if r.line == "" {
					return "", ErrInputClosed
				}
				return r.line, nil
			}
			return "", fmt.Errorf("failed to read input: %w", r.err)
		}
		return r.line, nil
	}
}

func (p *Prompter) readLoop() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// AcquireRecord prompts for the eight patient fields in order.
func (p *Prompter) AcquireRecord(ctx context.Context) (types.PatientRecord, error) {
	var rec types.PatientRecord

	steps := []struct {
		spec  FieldSpec
		apply func(Value)
	}{
		{GenderField, func(v Value) { rec.Gender = v.Text }},
		{AgeField, func(v Value) { rec.Age = v.Number }},
		{HypertensionField, func(v Value) { rec.Hypertension = v.Flag }},
		{HeartDiseaseField, func(v Value) { rec.HeartDisease = v.Flag }},
		{SmokingField, func(v Value) { rec.SmokingStatus = v.Text }},
		{BMIField, func(v Value) { rec.BMI = v.Number }},
		{HbA1cField, func(v Value) { rec.HbA1c = v.Number }},
		{GlucoseField, func(v Value) { rec.Glucose = v.Number }},
	}

	for _, step := range steps {
		v, err := p.Acquire(ctx, step.spec)
		if err != nil {
			return types.PatientRecord{}, err
		}
		step.apply(v)
	}

	return rec, nil
}
