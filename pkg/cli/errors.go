package cli

import (
	"context"
	"errors"
	"fmt"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// ExitCode maps err to the process exit code documented for the eunomia
// CLI: 0 success, 1 generic error, 2 validation/test failure, 3 signature
// failure, 4 registry failure, 5 distribution failure.
func ExitCode(err error) int {
	return eerrors.ExitCode(err)
}

// CommandError wraps a failure surfaced from a cobra RunE with the extra
// context the command wants rendered alongside the message (instance
// counts, bundle paths, and so on).
type CommandError struct {
	Command string
	Context map[string]any
	Cause   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Cause)
}
func (e *CommandError) Unwrap() error { return e.Cause }

// Envelope renders err (and, for a *CommandError, its context) as the
// {code, message, context} JSON shape printed under --json.
func Envelope(err error) eerrors.Envelope {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return eerrors.NewEnvelope(cmdErr.Cause, cmdErr.Context)
	}
	return eerrors.NewEnvelope(err, nil)
}

// IsCancellation reports whether err is (or wraps) context cancellation,
// the shape produced when a signal-derived context tears down an in-flight
// push or test run.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
