package exec

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dyluth/daykit/internal/logging"
)

// Output is the whitespace-trimmed output of a finished command
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited zero
func (o Output) OK() bool {
	return o.ExitCode == 0
}

// CommandFailure is returned when a command that must succeed did not
type CommandFailure struct {
	Command  string
	ExitCode int
	Stderr   string
	Cause    error // set when the process could not be started
}

func (e *CommandFailure) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("command failed: %s: %v", e.Command, e.Cause)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("command failed: %s (exit code %d)", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command failed: %s (exit code %d): %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *CommandFailure) Unwrap() error {
	return e.Cause
}

// Runner executes commands, trims their output and enforces the must-succeed contract.
// Each call is attempted exactly once.
type Runner struct {
	executor Executor
	log      *logging.Logger
	dir      string // default working directory, used only for logging
}

// NewRunner creates a Runner. log may be nil.
func NewRunner(executor Executor, log *logging.Logger) *Runner {
	dir, _ := os.Getwd()
	return &Runner{executor: executor, log: log, dir: dir}
}

// Run executes cmd. When mustSucceed is true a non-zero exit or a start failure
// is returned as *CommandFailure carrying the captured stderr. Otherwise the
// failure is only logged at WARN with its stderr; a start failure shows up as
// ExitCode -1 with the error text in Stderr.
func (r *Runner) Run(ctx context.Context, cmd Command, mustSucceed bool) (Output, error) {
	dir := cmd.Dir
	if dir == "" {
		dir = r.dir
	}
	r.log.Info("Running: %s (in %s)", cmd, dir)

	result, err := r.executor.Execute(ctx, cmd)
	out := Output{
		Stdout:   strings.TrimSpace(result.Stdout),
		Stderr:   strings.TrimSpace(result.Stderr),
		ExitCode: result.ExitCode,
	}

	if err != nil {
		out.ExitCode = -1
		if out.Stderr == "" {
			out.Stderr = err.Error()
		}
		if mustSucceed {
			r.log.Error("Command failed: %s", out.Stderr)
			return out, &CommandFailure{Command: cmd.String(), ExitCode: -1, Stderr: out.Stderr, Cause: err}
		}
		r.log.Warn("Command could not start: %s", out.Stderr)
		return out, nil
	}

	if out.Stdout != "" {
		r.log.Info("Output: %s", out.Stdout)
	}

	if out.ExitCode != 0 {
		if mustSucceed {
			r.log.Error("Command failed: %s", out.Stderr)
			return out, &CommandFailure{Command: cmd.String(), ExitCode: out.ExitCode, Stderr: out.Stderr}
		}
		r.log.Warn("Command exited %d: %s", out.ExitCode, out.Stderr)
	}

	return out, nil
}
