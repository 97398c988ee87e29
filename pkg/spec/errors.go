package spec

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
)

// SchemaError reports a declaration whose structure does not match the
// recognized option set: unparseable input, a missing required field, an
// unknown field, or a value of the wrong type.
type SchemaError struct {
	App    string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema error: " + describe(e.App, e.Field, e.Reason)
}

// FieldError is one out-of-domain value found while validating a
// declaration.
type FieldError struct {
	App    string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return describe(e.App, e.Field, e.Reason)
}

// ValidationError collects every FieldError of a declaration that was
// structurally sound.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.err.Error()
}

// Errors returns the individual problems, in declaration order.
func (e *ValidationError) Errors() []error {
	return multierr.Errors(e.err)
}

func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func schemaErrorf(app, field, format string, args ...interface{}) *SchemaError {
	return &SchemaError{App: app, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func fieldErrorf(app, field, format string, args ...interface{}) error {
	return &FieldError{App: app, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func describe(app, field, reason string) string {
	switch {
	case app == "" && field == "":
		return reason
	case app == "":
		return fmt.Sprintf("%v: %v", field, reason)
	case field == "":
		return fmt.Sprintf("%v: %v", app, reason)
	}
	return fmt.Sprintf("%v: %v: %v", app, field, reason)
}
