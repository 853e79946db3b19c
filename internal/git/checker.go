package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/daykit/internal/exec"
)

// Checker provides the Git queries and commits both tools need.
// All commands run through the injected Runner in dir.
type Checker struct {
	runner *exec.Runner
	dir    string
}

// NewChecker creates a new Git checker rooted at dir ("" = process working directory)
func NewChecker(runner *exec.Runner, dir string) *Checker {
	return &Checker{runner: runner, dir: dir}
}

func (c *Checker) git(args ...string) exec.Command {
	return exec.Command{Name: "git", Args: args, Dir: c.dir}
}

// IsGitRepository checks if dir is within a Git repository
func (c *Checker) IsGitRepository(ctx context.Context) (bool, error) {
	out, err := c.runner.Run(ctx, c.git("rev-parse", "--git-dir"), false)
	if err != nil {
		return false, err
	}
	if out.ExitCode == -1 {
		return false, fmt.Errorf("git not found in PATH: %s", out.Stderr)
	}
	return out.OK(), nil
}

// CurrentBranch returns the checked-out branch name, empty on a detached HEAD
func (c *Checker) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.git("branch", "--show-current"), true)
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return out.Stdout, nil
}

// CommitsBetween returns the one-line summaries of commits on head that are not on base,
// newest first, as printed by git log --oneline
func (c *Checker) CommitsBetween(ctx context.Context, base, head string) ([]string, error) {
	out, err := c.runner.Run(ctx, c.git("log", "--oneline", base+".."+head), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s..%s: %w", base, head, err)
	}
	return splitLines(out.Stdout), nil
}

// RemoteURL returns the fetch URL of the named remote
func (c *Checker) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := c.runner.Run(ctx, c.git("remote", "get-url", remote), false)
	if err != nil {
		return "", err
	}
	if !out.OK() {
		return "", fmt.Errorf("no %s remote: %s", remote, out.Stderr)
	}
	return out.Stdout, nil
}

// Status returns the porcelain status output
func (c *Checker) Status(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.git("status", "--porcelain"), true)
	if err != nil {
		return "", fmt.Errorf("failed to check Git status: %w", err)
	}
	return out.Stdout, nil
}

// CommitAll stages everything under dir and commits it with message.
// An empty index is not an error: committed is false and err is nil.
func (c *Checker) CommitAll(ctx context.Context, message string) (committed bool, err error) {
	if _, err := c.runner.Run(ctx, c.git("add", "."), true); err != nil {
		return false, fmt.Errorf("failed to stage changes: %w", err)
	}

	out, err := c.runner.Run(ctx, c.git("commit", "-m", message), false)
	if err != nil {
		return false, err
	}
	if out.OK() {
		return true, nil
	}
	if NothingToCommit(out.Stdout + "\n" + out.Stderr) {
		return false, nil
	}
	return false, &exec.CommandFailure{
		Command:  c.git("commit", "-m", message).String(),
		ExitCode: out.ExitCode,
		Stderr:   out.Stderr,
	}
}

// NothingToCommit reports whether git commit output says the index was empty
func NothingToCommit(output string) bool {
	return strings.Contains(output, "nothing to commit") ||
		strings.Contains(output, "nothing added to commit") ||
		strings.Contains(output, "no changes added to commit")
}

// SummarizeStatus formats porcelain output into categorized lists for log messages.
// Returns empty string if the workspace is clean.
func SummarizeStatus(porcelain string) string {
	porcelain = strings.TrimRight(porcelain, "\n")
	if strings.TrimSpace(porcelain) == "" {
		return ""
	}

	var modified, untracked []string
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 3 {
			continue
		}
		status := line[:2]
		file := strings.TrimSpace(line[2:])

		if strings.HasPrefix(status, "??") {
			untracked = append(untracked, file)
		} else {
			modified = append(modified, file)
		}
	}

	var parts []string
	if len(modified) > 0 {
		parts = append(parts, "Uncommitted changes:")
		for _, file := range modified {
			parts = append(parts, fmt.Sprintf(" M %s", file))
		}
	}
	if len(untracked) > 0 {
		if len(parts) > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, "Untracked files:")
		for _, file := range untracked {
			parts = append(parts, fmt.Sprintf("?? %s", file))
		}
	}

	return strings.Join(parts, "\n")
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
