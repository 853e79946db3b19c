package exec

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dyluth/daykit/internal/logging"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name        string
		result      Result
		startErr    error
		mustSucceed bool
		wantErr     bool
		wantOut     Output
	}{
		{
			name:        "exit 0 returns trimmed stdout",
			result:      Result{Stdout: "  feature/x\n", Stderr: "\n"},
			mustSucceed: true,
			wantOut:     Output{Stdout: "feature/x"},
		},
		{
			name:        "non-zero with must succeed fails",
			result:      Result{Stdout: "", Stderr: "fatal: bad revision\n", ExitCode: 128},
			mustSucceed: true,
			wantErr:     true,
			wantOut:     Output{Stderr: "fatal: bad revision", ExitCode: 128},
		},
		{
			name:        "non-zero without must succeed is swallowed",
			result:      Result{Stdout: "partial\n", Stderr: "warning\n", ExitCode: 1},
			mustSucceed: false,
			wantOut:     Output{Stdout: "partial", Stderr: "warning", ExitCode: 1},
		},
		{
			name:        "start failure without must succeed reports exit -1",
			startErr:    ErrNotFound("node"),
			mustSucceed: false,
			wantOut:     Output{Stderr: ErrNotFound("node").Error(), ExitCode: -1},
		},
		{
			name:        "start failure with must succeed fails",
			startErr:    ErrNotFound("gh"),
			mustSucceed: true,
			wantErr:     true,
			wantOut:     Output{Stderr: ErrNotFound("gh").Error(), ExitCode: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := NewFake()
			fake.Handler = func(Command) (Result, error) {
				return tt.result, tt.startErr
			}
			runner := NewRunner(fake, nil)

			out, err := runner.Run(context.Background(), Command{Name: "tool", Args: []string{"arg"}}, tt.mustSucceed)

			if tt.wantErr {
				require.Error(t, err)
				var failure *CommandFailure
				require.True(t, errors.As(err, &failure))
				assert.Equal(t, tt.wantOut.Stderr, failure.Stderr)
				assert.Equal(t, "tool arg", failure.Command)
				assert.Contains(t, err.Error(), tt.wantOut.Stderr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestRunner_StartFailureUnwraps(t *testing.T) {
	cause := errors.New("no such binary")
	fake := NewFake().Fail("missing", cause)

	_, err := NewRunner(fake, nil).Run(context.Background(), Command{Name: "missing"}, true)
	assert.ErrorIs(t, err, cause)
}

func TestRunner_LogsCommands(t *testing.T) {
	color.NoColor = true
	console := new(bytes.Buffer)
	log := logging.New(console)

	fake := NewFake().
		On("git status --porcelain", Result{Stdout: " M a.go\n"}).
		On("git commit -m x", Result{Stderr: "nothing to commit", ExitCode: 1})
	runner := NewRunner(fake, log)

	_, err := runner.Run(context.Background(), Command{Name: "git", Args: []string{"status", "--porcelain"}, Dir: "/repo"}, true)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), Command{Name: "git", Args: []string{"commit", "-m", "x"}}, true)
	require.Error(t, err)

	text := console.String()
	assert.Contains(t, text, "[INFO] Running: git status --porcelain (in /repo)")
	assert.Contains(t, text, "[INFO] Output: M a.go")
	assert.Contains(t, text, "[ERROR] Command failed: nothing to commit")
}

func TestRunner_LogsSwallowedFailures(t *testing.T) {
	color.NoColor = true
	console := new(bytes.Buffer)
	log := logging.New(console)

	fake := NewFake().
		On("gh auth status", Result{Stderr: "You are not logged into any GitHub hosts.", ExitCode: 1}).
		Fail("node --version", ErrNotFound("node"))
	runner := NewRunner(fake, log)

	_, err := runner.Run(context.Background(), Command{Name: "gh", Args: []string{"auth", "status"}}, false)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), Command{Name: "node", Args: []string{"--version"}}, false)
	require.NoError(t, err)

	text := console.String()
	assert.Contains(t, text, "[WARN] Command exited 1: You are not logged into any GitHub hosts.")
	assert.Contains(t, text, "[WARN] Command could not start: "+ErrNotFound("node").Error())
	assert.NotContains(t, text, "[ERROR]")
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "git log --oneline develop..feature/x",
		Command{Name: "git", Args: []string{"log", "--oneline", "develop..feature/x"}}.String())
	assert.Equal(t, "sudo apt update && sudo apt install gh -y",
		Shell("sudo apt update && sudo apt install gh -y").String())
	assert.Equal(t, "node", Command{Name: "node"}.String())
}

func TestSystem_Execute(t *testing.T) {
	sys := NewSystem()
	ctx := context.Background()

	t.Run("captures stdout and stderr", func(t *testing.T) {
		res, err := sys.Execute(ctx, Shell("echo out; echo err >&2"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "out", strings.TrimSpace(res.Stdout))
		assert.Equal(t, "err", strings.TrimSpace(res.Stderr))
	})

	t.Run("non-zero exit is a result", func(t *testing.T) {
		res, err := sys.Execute(ctx, Shell("exit 3"))
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("working directory is honoured", func(t *testing.T) {
		dir := t.TempDir()
		res, err := sys.Execute(ctx, Command{Name: "pwd", Dir: dir})
		require.NoError(t, err)
		assert.Contains(t, res.Stdout, dir[strings.LastIndex(dir, "/")+1:])
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		res, err := sys.Execute(ctx, Command{Name: "no_such_command_daykit_123"})
		assert.Error(t, err)
		assert.Equal(t, -1, res.ExitCode)
	})
}
