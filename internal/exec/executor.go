// Package exec provides a stub-friendly interface for running external commands.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/cli/go-gh/v2"
)

// Command describes a single external process invocation
type Command struct {
	Name string
	Args []string
	Dir  string // working directory (optional)

	// Interactive commands inherit the terminal instead of being captured.
	Interactive bool
}

// Shell wraps a script that relies on pipes or redirection in sh -c
func Shell(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

// String renders the command roughly as a user would type it
func (c Command) String() string {
	if c.Name == "sh" && len(c.Args) == 2 && c.Args[0] == "-c" {
		return c.Args[1]
	}
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Result holds the raw result of a command execution
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs commands.
// A process that exits non-zero is reported through Result.ExitCode with a nil error.
// The error is reserved for failures to run at all (binary not found, ctx canceled).
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// System is the production Executor. gh invocations go through go-gh so GH_PATH
// and the gh binary lookup behave exactly as gh extensions expect.
type System struct{}

// NewSystem creates a new System executor
func NewSystem() *System {
	return &System{}
}

// Execute runs cmd and captures its output
func (s *System) Execute(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Name == "gh" && cmd.Dir == "" {
		return s.executeGH(ctx, cmd)
	}
	return s.executeOS(ctx, cmd)
}

func (s *System) executeGH(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Interactive {
		return resultFromErr(Result{}, gh.ExecInteractive(ctx, cmd.Args...))
	}

	stdout, stderr, err := gh.ExecContext(ctx, cmd.Args...)
	return resultFromErr(Result{Stdout: stdout.String(), Stderr: stderr.String()}, err)
}

func (s *System) executeOS(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	if cmd.Interactive {
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	return resultFromErr(Result{Stdout: stdout.String(), Stderr: stderr.String()}, err)
}

// resultFromErr folds an exit error into the result's exit code
func resultFromErr(result Result, err error) (Result, error) {
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, err
}
