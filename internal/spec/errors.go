package spec

import "fmt"

// ErrorCode categorizes ingestion errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError          ErrorCode = "InputError"
	ParseError          ErrorCode = "ParseError"
	MissingPrerequisite ErrorCode = "MissingPrerequisite"
	IntegrityError      ErrorCode = "IntegrityError"
)

// SpecError is a fatal ingestion error. Any SpecError returned from Load means
// no usable model was produced.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path the error refers to, when known
	Cause    error
}

func (e *SpecError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Location)
}

func (e *SpecError) Unwrap() error { return e.Cause }

func newSpecError(code ErrorCode, location string, cause error, format string, args ...any) *SpecError {
	return &SpecError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: location,
		Cause:    cause,
	}
}
