// Package intake acquires a PatientRecord from an operator.
//
// Each field is described by a FieldSpec whose FieldKind is a tagged variant
// over Decimal, Binary and Enum. Validate dispatches on the tag; there is no
// per-field reader type. The Prompter repeats a prompt until the operator
// types something valid, with no cap on attempts.
package intake

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput marks a rejected attempt. The prompt loop consumes it and
// asks again; it never reaches the caller of Acquire.
var ErrInvalidInput = errors.New("invalid input")

// trimSet is the whitespace stripped from both ends before validation.
const trimSet = " \t\r\n"

type kindTag int

const (
	tagDecimal kindTag = iota
	tagBinary
	tagEnum
)

// FieldKind is the validation rule of a field.
type FieldKind struct {
	tag     kindTag
	allowed []string // lowercase members, Enum only
	min     float64  // inclusive lower bound, Decimal only
	bounded bool
}

// Decimal accepts any finite real-number literal.
func Decimal() FieldKind { return FieldKind{tag: tagDecimal} }

// DecimalAtLeast accepts finite real numbers >= min.
func DecimalAtLeast(min float64) FieldKind {
	return FieldKind{tag: tagDecimal, min: min, bounded: true}
}

// Binary accepts exactly "0" or "1".
func Binary() FieldKind { return FieldKind{tag: tagBinary} }

// Enum accepts one of the given members, compared case-insensitively.
func Enum(members ...string) FieldKind {
	allowed := make([]string, len(members))
	for i, m := range members {
		allowed[i] = strings.ToLower(m)
	}
	return FieldKind{tag: tagEnum, allowed: allowed}
}

func (k FieldKind) String() string {
	switch k.tag {
	case tagBinary:
		return "binary"
	case tagEnum:
		return "enum(" + strings.Join(k.allowed, "|") + ")"
	default:
		if k.bounded {
			return fmt.Sprintf("decimal(>=%g)", k.min)
		}
		return "decimal"
	}
}

// Trim strips spaces, tabs, carriage returns and newlines from both ends.
func Trim(raw string) string {
	return strings.Trim(raw, trimSet)
}

// Validate reports whether raw is acceptable for kind. raw is trimmed first;
// an empty result is never valid.
func Validate(kind FieldKind, raw string) bool {
	s := Trim(raw)
	if s == "" {
		return false
	}

	switch kind.tag {
	case tagBinary:
		return s == "0" || s == "1"
	case tagEnum:
		lower := strings.ToLower(s)
		for _, m := range kind.allowed {
			if lower == m {
				return true
			}
		}
		return false
	default:
		f, ok := parseDecimal(s)
		if !ok {
			return false
		}
		return !kind.bounded || f >= kind.min
	}
}

// parseDecimal accepts plain decimal and exponent notation only. strconv also
// takes hex floats, digit underscores, Inf and NaN; none of those are real
// number literals an operator would type.
func parseDecimal(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX_pP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Value is a validated, canonical field value.
type Value struct {
	Text   string  // lowercase text for Enum, the trimmed input otherwise
	Number float64 // Decimal
	Flag   int     // Binary
}

// Normalize validates raw and returns its canonical value.
// Enum values are lowercased, Decimals parsed, Binary flags turned into 0/1.
func Normalize(kind FieldKind, raw string) (Value, error) {
	if !Validate(kind, raw) {
		return Value{}, fmt.Errorf("%w for %s: %q", ErrInvalidInput, kind, Trim(raw))
	}
	s := Trim(raw)

	switch kind.tag {
	case tagBinary:
		flag := 0
		if s == "1" {
			flag = 1
		}
		return Value{Text: s, Flag: flag}, nil
	case tagEnum:
		return Value{Text: strings.ToLower(s)}, nil
	default:
		f, _ := parseDecimal(s)
		return Value{Text: s, Number: f}, nil
	}
}

// Check validates raw against spec and returns ErrInvalidInput on failure.
func Check(spec FieldSpec, raw string) error {
	if !Validate(spec.Kind, raw) {
		return fmt.Errorf("%s: %w", spec.Name, ErrInvalidInput)
	}
	return nil
}
