package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Validator is implemented by every entity that checks its own invariants before a write.
type Validator interface {
	Validate() error
}

// ValidationError holds field-level messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records msg for field, keeping the first message when a field fails twice.
func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// checkAmount enforces a non-negative value with two decimal places and at most maxDigits digits overall.
func checkAmount(v *ValidationError, field string, amount decimal.Decimal, maxDigits int) {
	if amount.IsNegative() {
		v.Add(field, "Ensure this value is greater than or equal to 0.")
		return
	}
	if !amount.Equal(amount.Round(2)) {
		v.Add(field, "Ensure that there are no more than 2 decimal places.")
		return
	}
	intDigits := maxDigits - 2
	if !amount.LessThan(decimal.New(1, int32(intDigits))) {
		v.Add(field, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", intDigits))
	}
}
