package mockstore

import "fmt"

// Error codes reported through GraphQL error extensions.
const (
	CodeUnknownType  = "UNKNOWN_TYPE"
	CodeNotFound     = "NOT_FOUND"
	CodeMissingField = "MISSING_FIELD"
	CodeValidation   = "VALIDATION"
)

// UnknownTypeError is returned when no generator is registered for a type.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no mock generator registered for type %q", e.TypeName)
}

// Code returns the error code for this error.
func (e *UnknownTypeError) Code() string {
	return CodeUnknownType
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *UnknownTypeError) Hint() string {
	return fmt.Sprintf("Register a generator for %q or enable autoMock with a schema that defines it.", e.TypeName)
}

// NotFoundError is returned when an operation needs an existing record.
type NotFoundError struct {
	TypeName string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %s:%s not found", e.TypeName, e.ID)
}

// Code returns the error code for this error.
func (e *NotFoundError) Code() string {
	return CodeNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("Read %s:%s once to generate it, or create it before deleting.", e.TypeName, e.ID)
}

// MissingFieldError is returned under FieldPolicyError when a generator
// leaves a schema field unset.
type MissingFieldError struct {
	TypeName string
	ID       string
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("generator for %q left field %q unset (id %q)", e.TypeName, e.Field, e.ID)
}

// Code returns the error code for this error.
func (e *MissingFieldError) Code() string {
	return CodeMissingField
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *MissingFieldError) Hint() string {
	return fmt.Sprintf("Return %q from the %s generator or switch the field policy to null or default.", e.Field, e.TypeName)
}

// ValidationError is returned for invalid arguments.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// Code returns the error code for this error.
func (e *ValidationError) Code() string {
	return CodeValidation
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	if e.Field != "" {
		return fmt.Sprintf("Check the value of %q.", e.Field)
	}
	return "Check the arguments passed to the store."
}

// CodeError is implemented by errors that carry a machine-readable code.
type CodeError interface {
	error
	Code() string
}

// HintError is implemented by errors that provide resolution hints.
type HintError interface {
	error
	Hint() string
}
