// Package export is the serialization boundary of the parser. It renders
// records as stable JSON and wraps every outcome in an envelope so callers
// never see a panic or an untyped error.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/polisai/polis-whois/pkg/domain"
	"github.com/polisai/polis-whois/pkg/whois"
)

// Envelope is the boundary result: exactly one of Result and Error is set.
type Envelope struct {
	Result *Record    `json:"result"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed parse.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success wraps a record.
func Success(rec domain.DomainRecord) Envelope {
	r := FromRecord(rec)
	return Envelope{Result: &r}
}

// Failure wraps an error under its boundary code.
func Failure(err error) Envelope {
	return Envelope{Error: &ErrorBody{Code: domain.ErrorCode(err), Message: err.Error()}}
}

// Marshal renders rec as JSON.
func Marshal(rec domain.DomainRecord, pretty bool) ([]byte, error) {
	return encode(FromRecord(rec), pretty)
}

// MarshalEnvelope renders env as JSON.
func MarshalEnvelope(env Envelope, pretty bool) ([]byte, error) {
	return encode(env, pretty)
}

func encode(v any, pretty bool) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return nil, domain.SerializationError(err)
	}
	return b, nil
}

// Parse runs p on text and returns the envelope. Panics inside the parser are
// recovered and reported with code "internal".
func Parse(ctx context.Context, p *whois.Parser, text string) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = Failure(&domain.ParseError{
				Err:     fmt.Errorf("panic: %v", r),
				Code:    domain.CodeInternal,
				Message: fmt.Sprintf("internal: %v", r),
			})
		}
	}()

	if strings.TrimSpace(text) == "" {
		return Failure(domain.InvalidInputError("empty input"))
	}
	rec, err := p.Parse(ctx, text)
	if err != nil {
		return Failure(err)
	}
	return Success(rec)
}

// ParseJSON parses text and returns the serialized envelope. It always returns
// a JSON document; the error reports the boundary code of a failed parse so
// transports can map it without decoding the body.
func ParseJSON(ctx context.Context, p *whois.Parser, text string, pretty bool) ([]byte, error) {
	env := Parse(ctx, p, text)

	b, err := MarshalEnvelope(env, pretty)
	if err != nil {
		env = Failure(err)
		b, _ = MarshalEnvelope(env, pretty)
		return b, err
	}
	if env.Error != nil {
		return b, &domain.ParseError{Err: codeError(env.Error.Code), Code: env.Error.Code, Message: env.Error.Message}
	}
	return b, nil
}

func codeError(code string) error {
	switch code {
	case domain.CodeInvalidInput:
		return domain.ErrInvalidInput
	case domain.CodeEncoding:
		return domain.ErrEncoding
	case domain.CodeSerialization:
		return domain.ErrSerialization
	}
	return errors.New(code)
}
