package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
)

// Error collects field-level validation failures for one record.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// Unwrap lets callers match any validation failure with errors.Is(err, apperrors.ErrInvalidRecord).
func (e *Error) Unwrap() error { return apperrors.ErrInvalidRecord }

// fieldErrors accumulates messages and turns them into an *Error.
type fieldErrors map[string]string

func (f fieldErrors) finite(field string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f[field] = "must be a finite number"
		return false
	}
	return true
}

func (f fieldErrors) positive(field string, v float64) {
	if f.finite(field, v) && v <= 0 {
		f[field] = "must be positive"
	}
}

func (f fieldErrors) nonNegative(field string, v float64) {
	if f.finite(field, v) && v < 0 {
		f[field] = "cannot be negative"
	}
}

func (f fieldErrors) currency(field, code string) {
	if err := ValidateCurrency(code); err != nil {
		f[field] = err.Error()
	}
}

func (f fieldErrors) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		f[field] = field + " is required"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Fields: f}
}
