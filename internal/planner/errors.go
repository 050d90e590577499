package planner

import (
	"fmt"
)

// Kind classifies why a generation operation failed. Transport failures are
// the only kind worth retrying; the format kinds mean the provider answered
// but the payload cannot be trusted.
type Kind string

const (
	KindNoContent  Kind = "no_content"
	KindMalformed  Kind = "malformed"
	KindMissingKey Kind = "missing_key"
	KindTransport  Kind = "transport"
)

// GenerationError is returned when the provider produced no usable result.
// The caller's prior domain state is always left untouched.
type GenerationError struct {
	Kind Kind
	msg  string
	err  error
}

func (e *GenerationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.msg)
}

func (e *GenerationError) Unwrap() error {
	return e.err
}

func generationErr(kind Kind, msg string, err error) *GenerationError {
	return &GenerationError{Kind: kind, msg: msg, err: err}
}
