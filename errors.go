package gosl

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInternalConsistency marks a broken invariant on the input, such as a
// malformed spatial atom. It is raised with panic and never recovered here.
var ErrInternalConsistency = errors.New("internal consistency violation")

func violation(format string, args ...interface{}) {
	panic(errors.Wrapf(ErrInternalConsistency, format, args...))
}

// EncodingError is returned by the encoder when a term cannot be translated.
type EncodingError struct {
	Term TermID
	Msg  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed: %s", e.Msg)
}

func encodingErrorf(t TermID, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Term: t, Msg: fmt.Sprintf(format, args...)}
}

// TranslationError is the only error kind Reduce returns. It carries the
// diagnostic of the failure that aborted the reduction.
type TranslationError struct {
	Msg   string
	cause error
}

func newTranslationError(cause error) *TranslationError {
	return &TranslationError{Msg: cause.Error(), cause: cause}
}

func (e *TranslationError) Error() string {
	return "slstar reduction failed: " + e.Msg
}

func (e *TranslationError) Cause() error  { return e.cause }
func (e *TranslationError) Unwrap() error { return e.cause }
