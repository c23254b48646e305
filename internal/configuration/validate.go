package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is the sentinel every configuration validation failure wraps.
var ErrInvalidConfig = errors.New("invalid configuration")

// validate is the package-level validator instance used for struct validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one configuration field that failed validation.
type FieldError struct {
	Field string // Dotted field path, e.g. "Config.Backend.URL"
	Rule  string // Violated validator rule, e.g. "gte"
	Value any
}

// ValidationError aggregates every field that failed validation so a user can
// fix a configuration in one pass.
type ValidationError struct {
	Fields []FieldError
}

// Error lists the failing fields.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %q (got %v)", f.Field, f.Rule, f.Value))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

// Unwrap lets callers match ErrInvalidConfig with errors.Is.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// Validate checks every field constraint. Invalid configuration is one of the
// only two run-fatal conditions, so this runs before any component is built.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Namespace(),
			Rule:  fe.Tag(),
			Value: fe.Value(),
		})
	}
	return out
}
