package run

import (
	"errors"

	"github.com/flarebyte/darkonly/internal/migrate"
)

const (
	exitCodeSuccess = 0
	exitCodeFatal   = 1
	exitCodeDrift   = 2
)

type runExitError struct {
	code int
	msg  string
}

func (e runExitError) Error() string { return e.msg }
func (e runExitError) ExitCode() int { return e.code }

// evaluateRunExit maps the outcome of a run to the process exit status.
// Per-file errors never change the exit code.
func evaluateRunExit(sum migrate.Summary, err error, check bool) error {
	if err != nil {
		if errors.Is(err, migrate.ErrMissingRoot) {
			return runExitError{code: exitCodeFatal, msg: "Error: " + err.Error()}
		}
		return runExitError{code: exitCodeFatal, msg: err.Error()}
	}
	if check && sum.Drift() {
		return runExitError{code: exitCodeDrift, msg: "drift detected"}
	}
	return nil
}
