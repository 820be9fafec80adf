package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input shape or range at an API boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError with a formatted message.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports an external config that could not be loaded or
// did not pass validation.
type ConfigurationError struct {
	Path  string
	Cause error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Cause)
	}
	return fmt.Sprintf("invalid configuration %s: %v", e.Path, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Configuration wraps cause as a ConfigurationError for path.
func Configuration(path string, cause error) *ConfigurationError {
	return &ConfigurationError{Path: path, Cause: cause}
}

// ParsingError reports a MIDI source that is unreadable or corrupt.
type ParsingError struct {
	Path  string
	Cause error
}

func (e *ParsingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("could not parse midi: %v", e.Cause)
	}
	return fmt.Sprintf("could not parse midi %s: %v", e.Path, e.Cause)
}

func (e *ParsingError) Unwrap() error {
	return e.Cause
}

// Parsing wraps cause as a ParsingError for path.
func Parsing(path string, cause error) *ParsingError {
	return &ParsingError{Path: path, Cause: cause}
}

// ExportError reports a result that could not be written in the requested
// format.
type ExportError struct {
	Format string
	Cause  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s failed: %v", e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error {
	return e.Cause
}

func Export(format string, cause error) *ExportError {
	return &ExportError{Format: format, Cause: cause}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsParsing(err error) bool {
	var target *ParsingError
	return errors.As(err, &target)
}

func IsExport(err error) bool {
	var target *ExportError
	return errors.As(err, &target)
}
