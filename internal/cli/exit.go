package cli

import (
	"fmt"

	"github.com/pkg/errors"
)

// Exit codes reported through ExitError.
const (
	ExitFailure     = 1 // no response: configuration or transport failure
	ExitErrorStatus = 2 // the response status was 4xx or 5xx
	ExitInvalid     = 3 // the response body failed extraction or schema validation
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErrorf(code int, format string, args ...interface{}) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
