package commands

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitThresholds = 1
	ExitUsage      = 2
)

// ErrThresholdsNotMet is returned by lint when the project or a resource
// scores under its failure threshold.
var ErrThresholdsNotMet = errors.New("score thresholds not met")

// ExitError ends the process with a specific exit code.
type ExitError struct {
	Code int
	Err  error
	// Reported is set when the command output already explains the failure.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps a command error to the process exit code. Any error that
// does not carry its own code is a usage, configuration or load error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsage
}
