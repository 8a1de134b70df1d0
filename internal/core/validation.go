package core

// validation.go provides row-level validation against a rule's checks.
//
// Every ValidationRule names one field and carries one Check. Checks run in
// rule order and all of them run: a failing check never stops the ones after
// it. The row's status is derived from the failures:
//  1. A failing Required check pins the row to invalid
//  2. Any other failing check downgrades valid to warning
//
// invalid is terminal for the row; nothing moves it back to warning.

import (
	"fmt"
	"math"
	"regexp"
)

// ValidationKind names the type of a Check.
type ValidationKind string

const (
	ValidateRequired ValidationKind = "required"
	ValidateNumeric  ValidationKind = "numeric"
	ValidateDate     ValidationKind = "date"
	ValidateEmail    ValidationKind = "email"
	ValidateRegex    ValidationKind = "regex"
	ValidateRange    ValidationKind = "range"
)

// emailRegex is deliberately loose: something@something.something.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Check is one of Required, Numeric, Date, Email, Regex or Range.
type Check interface {
	Kind() ValidationKind
	// Passes reports whether the field value satisfies the check.
	// value is nil when the field is missing from the row.
	Passes(value any) bool
}

// ValidationRule applies one Check to a single named field.
type ValidationRule struct {
	Field   string
	Message string // Returned verbatim on failure
	Check   Check
}

// Required fails on missing or empty values.
type Required struct{}

// Numeric fails when the value has no numeric reading.
type Numeric struct{}

// Date fails when the value cannot be parsed as a date.
type Date struct{}

// Email fails unless the value looks like an email address.
type Email struct{}

// Regex fails unless the value matches Pattern.
type Regex struct {
	Pattern *regexp.Regexp
}

// Range fails when the numeric value is outside [Min, Max].
// A nil bound is not checked. Values with no numeric reading pass;
// pair Range with Numeric to reject them.
type Range struct {
	Min *float64
	Max *float64
}

func (Required) Kind() ValidationKind { return ValidateRequired }
func (Numeric) Kind() ValidationKind  { return ValidateNumeric }
func (Date) Kind() ValidationKind     { return ValidateDate }
func (Email) Kind() ValidationKind    { return ValidateEmail }
func (Regex) Kind() ValidationKind    { return ValidateRegex }
func (Range) Kind() ValidationKind    { return ValidateRange }

func (Required) Passes(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}

func (Numeric) Passes(value any) bool {
	return !math.IsNaN(toNumber(value))
}

func (Date) Passes(value any) bool {
	_, ok := parseDate(value)
	return ok
}

func (Email) Passes(value any) bool {
	return emailRegex.MatchString(toText(value))
}

func (c Regex) Passes(value any) bool {
	if c.Pattern == nil {
		return true
	}
	return c.Pattern.MatchString(toText(value))
}

func (c Range) Passes(value any) bool {
	n := toNumber(value)
	// NaN compares false against both bounds and therefore passes
	if c.Min != nil && n < *c.Min {
		return false
	}
	if c.Max != nil && n > *c.Max {
		return false
	}
	return true
}

// MarshalJSON describes the rule for listing endpoints.
func (r ValidationRule) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"field":   r.Field,
		"type":    r.Check.Kind(),
		"message": r.Message,
	}
	switch c := r.Check.(type) {
	case Regex:
		if c.Pattern != nil {
			out["params"] = map[string]any{"pattern": c.Pattern.String()}
		}
	case Range:
		params := map[string]any{}
		if c.Min != nil {
			params["min"] = *c.Min
		}
		if c.Max != nil {
			params["max"] = *c.Max
		}
		out["params"] = params
	}
	return marshalOrdered(out, "field", "type", "params", "message")
}

// ValidationError represents a single failed check for a field.
type ValidationError struct {
	Field   string // Field/column name
	Message string // Rule message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the outcome of validating one row.
type ValidationResult struct {
	Status ValidationStatus
	Errors []ValidationError
}

// ValidateRow runs every validation of a rule against row.
func ValidateRow(row *Fields, validations []ValidationRule) ValidationResult {
	result := ValidationResult{Status: StatusValid}

	for _, v := range validations {
		value, _ := row.Get(v.Field)
		if v.Check == nil || v.Check.Passes(value) {
			continue
		}

		result.Errors = append(result.Errors, ValidationError{
			Field:   v.Field,
			Message: v.Message,
		})

		if v.Check.Kind() == ValidateRequired {
			result.Status = StatusInvalid
		} else if result.Status == StatusValid {
			result.Status = StatusWarning
		}
	}

	return result
}

// Float returns a pointer to f, for Range bounds.
func Float(f float64) *float64 {
	return &f
}
