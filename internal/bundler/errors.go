package bundler

import (
	"errors"

	"github.com/minibundle/minibundle/internal/logger"
)

// Every build failure wraps exactly one of these, so callers can check the
// reason with "errors.Is"
var (
	ErrResolve           = errors.New("could not resolve module")
	ErrMissingExport     = errors.New("missing export")
	ErrUnhandledExport   = errors.New("unhandled export form")
	ErrParse             = errors.New("parse error")
	ErrUnsupportedSyntax = errors.New("unsupported syntax")
	ErrInternal          = errors.New("internal error")
)

// A fatal build error. The message carries the location to show to the user.
type Error struct {
	Msg logger.Msg
	Err error
}

func (e *Error) Error() string {
	if loc := e.Msg.Location; loc != nil {
		return loc.File + ": " + e.Msg.Text
	}
	return e.Msg.Text
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(err error, source *logger.Source, r logger.Range, text string) *Error {
	return &Error{
		Err: err,
		Msg: logger.Msg{
			Kind:     logger.Error,
			Text:     text,
			Location: logger.LocationOrNil(source, r),
		},
	}
}
