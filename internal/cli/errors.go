package cli

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitUserError = 1
	ExitSysError  = 2
)

// ExitError carries the process exit code for an error returned by a
// command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func userError(message string, err error) error {
	return &ExitError{Code: ExitUserError, Message: message, Err: err}
}

func sysError(message string, err error) error {
	return &ExitError{Code: ExitSysError, Message: message, Err: err}
}

// ExitCode maps err to a process exit code. Errors that are not an
// ExitError are flag or argument errors from cobra and count as user
// errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
