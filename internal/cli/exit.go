package cli

import (
	"errors"
	"fmt"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitDenied  = 2
)

// ExitError signals a handled non-zero exit. The command has already printed
// whatever the user needs to see, so main prints nothing more.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// Denied is returned when a guard redirected or the role check refused.
func Denied() error {
	return &ExitError{Code: ExitDenied}
}

// Code maps an error returned by Execute to a process exit code and reports
// whether main should print it.
func Code(err error) (code int, report bool) {
	if err == nil {
		return ExitOK, false
	}
	var exit interface{ ExitCode() int }
	if errors.As(err, &exit) {
		return exit.ExitCode(), false
	}
	return ExitFailure, true
}
