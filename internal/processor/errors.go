package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Failure taxonomy. Every error returned by Process matches exactly one of
// these with errors.Is.
var (
	ErrInputMissing = errors.New("input file not found")
	ErrDecode       = errors.New("decode failed")
	ErrPipeline     = errors.New("enhancement failed")
	ErrEncode       = errors.New("encode failed")
)

// Error ties a failure kind to the path it concerns and the underlying cause
type Error struct {
	Kind  error
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Cause)
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, path string, cause error) error {
	return errors.WithStack(&Error{Kind: kind, Path: path, Cause: cause})
}

// Kind returns a short label for err, used in logs and metrics
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInputMissing):
		return "input_missing"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrPipeline):
		return "pipeline"
	case errors.Is(err, ErrEncode):
		return "encode"
	default:
		return "internal"
	}
}
