package exitcode

import (
	"errors"
)

// Exit codes of the minibundle command
const (
	Success = 0

	// The bundle couldn't be built or printed
	BuildFailed = 1

	// The command line, environment or project file asked for something
	// that doesn't exist
	InvalidUsage = 2
)

// Coder is an error that knows which exit code it should produce
type Coder interface {
	error
	ExitCode() int
}

// Get gets the exit code for an error returned by a command:
//
//	nil => Success
//	errors implementing Coder => value returned by ExitCode
//	all other errors => BuildFailed
func Get(err error) int {
	if err == nil {
		return Success
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	return BuildFailed
}

// Set wraps an error so that it produces the given exit code. The message and
// the error chain stay the same.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

func Usage(err error) error {
	return Set(err, InvalidUsage)
}

var _ Coder = coder{}

type coder struct {
	error
	code int
}

func (c coder) ExitCode() int {
	return c.code
}

func (c coder) Unwrap() error {
	return c.error
}
