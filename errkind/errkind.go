// Package errkind holds the failure categories a conversion run can end
// with. Every error that leaves the pipeline matches exactly one of the
// kind sentinels under errors.Is.
package errkind

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrIO covers open, read, write, and close failures, including a
	// malformed binary header.
	ErrIO = errors.New("io error")
	// ErrCRSDecode means an embedded spatial reference could not be
	// decoded or converted.
	ErrCRSDecode = errors.New("crs decode error")
	// ErrSchemaMismatch means column buffers disagree in length. It
	// indicates a programming defect, not bad input.
	ErrSchemaMismatch = errors.New("schema mismatch error")
	// ErrEncoding means the geometry column cannot be produced in the
	// target physical layout.
	ErrEncoding = errors.New("encoding error")
)

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// Wrap annotates err with msg and tags it with kind. A nil err yields
// nil. If err already carries kind, only the message is added.
func Wrap(kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	if msg != "" {
		err = pkgerrors.Wrap(err, msg)
	}
	if errors.Is(err, kind) {
		return err
	}
	return &kindError{kind: kind, cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(kind, pkgerrors.Wrapf(err, format, args...), "")
}

// Of returns the kind sentinel err carries, or nil.
func Of(err error) error {
	for _, kind := range []error{ErrIO, ErrCRSDecode, ErrSchemaMismatch, ErrEncoding} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
