package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/podscribe/errors"
)

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects checks that struct tags cannot express, such as
// mutually exclusive flags.
type Validator struct {
	errors []FieldError
}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// Errors returns the collected errors.
func (v *Validator) Errors() []FieldError { return v.errors }

// Err returns an INVALID_INPUT AppError for the collected errors, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", v.errors)
}

// Required checks that value is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// ExactlyOne checks that exactly one of the named values is set.
func (v *Validator) ExactlyOne(values map[string]string) *Validator {
	set := 0
	names := make([]string, 0, len(values))
	for name, value := range values {
		names = append(names, name)
		if strings.TrimSpace(value) != "" {
			set++
		}
	}
	if set != 1 {
		slices.Sort(names)
		v.AddError(strings.Join(names, "|"), "exactly one must be set")
	}
	return v
}

// OneOf checks that a non-empty value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom records message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
