package exec

import (
	"context"
	"fmt"
	"strings"
)

// Fake is an Executor for tests. Responses are keyed by the rendered command
// string; unmatched commands succeed with empty output.
type Fake struct {
	Responses map[string]Result
	Errors    map[string]error
	Calls     []Command

	// Handler, when set, takes precedence over the maps.
	Handler func(cmd Command) (Result, error)
}

// NewFake creates an empty Fake
func NewFake() *Fake {
	return &Fake{
		Responses: make(map[string]Result),
		Errors:    make(map[string]error),
	}
}

// On registers the result returned for the command rendered as key
func (f *Fake) On(key string, result Result) *Fake {
	f.Responses[key] = result
	return f
}

// Fail registers a start failure for the command rendered as key
func (f *Fake) Fail(key string, err error) *Fake {
	f.Errors[key] = err
	return f
}

// Execute records the call and returns the registered response
func (f *Fake) Execute(_ context.Context, cmd Command) (Result, error) {
	f.Calls = append(f.Calls, cmd)

	if f.Handler != nil {
		return f.Handler(cmd)
	}

	key := cmd.String()
	if err, ok := f.Errors[key]; ok {
		return Result{ExitCode: -1}, err
	}
	if res, ok := f.Responses[key]; ok {
		return res, nil
	}
	return Result{}, nil
}

// Called reports whether a command whose rendering starts with prefix was executed
func (f *Fake) Called(prefix string) bool {
	return f.Find(prefix) != nil
}

// Find returns the first executed command whose rendering starts with prefix
func (f *Fake) Find(prefix string) *Command {
	for i := range f.Calls {
		if strings.HasPrefix(f.Calls[i].String(), prefix) {
			return &f.Calls[i]
		}
	}
	return nil
}

// Rendered returns every executed command as a string, in order
func (f *Fake) Rendered() []string {
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}

// ErrNotFound mimics the error returned when a binary is missing from PATH
func ErrNotFound(name string) error {
	return fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}
