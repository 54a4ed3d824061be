package domain

import (
	"errors"
	"fmt"
)

// Fatal parse errors. Everything else is reported as a Warning on the record.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEncoding      = errors.New("input is not valid text")
	ErrSerialization = errors.New("record serialization failed")
)

// Error codes carried across the library boundary.
const (
	CodeInvalidInput  = "invalid_input"
	CodeEncoding      = "encoding"
	CodeSerialization = "serialization"
	CodeInternal      = "internal"
)

// ParseError wraps a fatal error with a stable machine-readable code.
type ParseError struct {
	Err     error
	Code    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidInputError builds an ErrInvalidInput error with a formatted message.
func InvalidInputError(format string, args ...any) *ParseError {
	return &ParseError{
		Err:     ErrInvalidInput,
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid input: "+format, args...),
	}
}

// EncodingError builds an ErrEncoding error with a formatted message.
func EncodingError(format string, args ...any) *ParseError {
	return &ParseError{
		Err:     ErrEncoding,
		Code:    CodeEncoding,
		Message: fmt.Sprintf("encoding: "+format, args...),
	}
}

// SerializationError wraps a marshalling failure.
func SerializationError(err error) *ParseError {
	return &ParseError{
		Err:     fmt.Errorf("%w: %w", ErrSerialization, err),
		Code:    CodeSerialization,
		Message: "serialization: " + err.Error(),
	}
}

// ErrorCode maps an error to its boundary code. Unknown errors map to CodeInternal.
func ErrorCode(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Code != "" {
		return pe.Code
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrEncoding):
		return CodeEncoding
	case errors.Is(err, ErrSerialization):
		return CodeSerialization
	default:
		return CodeInternal
	}
}

// Warning codes recorded in Meta.Warnings.
const (
	WarnUnparsedDate   = "unparsed_date"
	WarnUnknownDNSSEC  = "unknown_dnssec"
	WarnNoNameServer   = "no_name_server"
	WarnDuplicateValue = "duplicate_value"
	WarnRedactedValue  = "redacted_value"
	WarnUnresolvedRole = "unresolved_contact"
	WarnUnknownDialect = "unknown_dialect"
)

// Warning is a non-fatal parse anomaly. Parsing continues after a warning.
type Warning struct {
	Code    string
	Field   Field
	Key     string
	Line    int
	Message string
}
