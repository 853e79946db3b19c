package prflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/daykit/internal/config"
	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProtector struct {
	err    error
	calls  int
	repo   github.Repository
	branch string
	rules  github.Protection
}

func (f *fakeProtector) Protect(_ context.Context, repo github.Repository, branch string, rules github.Protection) error {
	f.calls++
	f.repo, f.branch, f.rules = repo, branch, rules
	return f.err
}

func fixedRepo(string, string, string) (github.Repository, error) {
	return github.Repository{Owner: "acme", Name: "resume"}, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

// happyFake answers like an installed, authenticated gh on a feature branch
func happyFake(branch string, commits []string) *exec.Fake {
	return exec.NewFake().
		On("gh --version", exec.Result{Stdout: "gh version 2.40.0"}).
		On("gh auth status", exec.Result{Stderr: "✓ Logged in to github.com as octocat"}).
		On("git branch --show-current", exec.Result{Stdout: branch + "\n"}).
		On("git log --oneline develop.."+branch, exec.Result{Stdout: strings.Join(commits, "\n")})
}

func newTestOrchestrator(t *testing.T, fake *exec.Fake, protector github.Protector) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.ProjectRoot = root

	if fake.Handler == nil {
		// gh pr create is rendered with the full body, so match it by prefix
		fake.Handler = func(cmd exec.Command) (exec.Result, error) {
			if strings.HasPrefix(cmd.String(), "gh pr create") {
				return exec.Result{Stdout: "https://github.com/acme/resume/pull/42\n"}, nil
			}
			key := cmd.String()
			if err, ok := fake.Errors[key]; ok {
				return exec.Result{ExitCode: -1}, err
			}
			return fake.Responses[key], nil
		}
	}

	o := New(cfg, exec.NewRunner(fake, nil), nil,
		WithProtector(protector),
		WithRepoResolver(fixedRepo),
		WithClock(fixedNow),
	)
	return o, root
}

func TestRun_FeatureBranch(t *testing.T) {
	fake := happyFake("feature/x", []string{"abc123 add login", "def456 tidy"})
	protector := &fakeProtector{}
	o, root := newTestOrchestrator(t, fake, protector)

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "feature/x", report.Branch)
	assert.Equal(t, "https://github.com/acme/resume/pull/42", report.PullRequestURL)
	assert.True(t, report.ProtectionApplied)
	assert.False(t, report.GHInstalled)
	assert.Empty(t, report.Warnings)

	// workflow file written under the project root
	content, err := os.ReadFile(filepath.Join(root, ".github", "workflows", "automated-qa.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Automated Quality Assurance")

	// gh pr create arguments
	create := fake.Find("gh pr create")
	require.NotNil(t, create)
	assert.Equal(t, root, create.Dir, "gh pr create runs in the project root")
	args := create.Args
	assert.Equal(t, TitlePrefix+"x", argValue(args, "--title"))
	assert.Equal(t, "develop", argValue(args, "--base"))
	assert.Equal(t, "feature/x", argValue(args, "--head"))
	assert.Equal(t, "@me", argValue(args, "--assignee"))
	assert.Equal(t, "security,enhancement,ready-for-review", argValue(args, "--label"))
	assert.Contains(t, argValue(args, "--body"), "- abc123 add login\n- def456 tidy\n")

	// protection rules
	assert.Equal(t, 1, protector.calls)
	assert.Equal(t, "develop", protector.branch)
	assert.Equal(t, "acme/resume", protector.repo.String())
	assert.True(t, protector.rules.RequiredStatusChecks.Strict)
	assert.Equal(t, 1, protector.rules.RequiredPullRequestReviews.RequiredApprovingReviewCount)
	assert.True(t, protector.rules.RequiredPullRequestReviews.DismissStaleReviews)
}

func TestRun_StageOrder(t *testing.T) {
	fake := happyFake("feature/x", nil)
	o, _ := newTestOrchestrator(t, fake, &fakeProtector{})

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	rendered := fake.Rendered()
	require.Len(t, rendered, 6)
	assert.Equal(t, "gh --version", rendered[0])
	assert.Equal(t, "gh auth status", rendered[1])
	assert.Equal(t, "git branch --show-current", rendered[2])
	assert.Equal(t, "git log --oneline develop..feature/x", rendered[3])
	assert.True(t, strings.HasPrefix(rendered[4], "gh pr create"))
	assert.Equal(t, "git remote get-url origin", rendered[5])
}

func TestRun_NonFeatureBranchSkipsPR(t *testing.T) {
	fake := happyFake("main", nil)
	protector := &fakeProtector{}
	o, _ := newTestOrchestrator(t, fake, protector)

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, fake.Called("gh pr create"))
	assert.Empty(t, report.PullRequestURL)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Not on a feature branch")
	assert.Equal(t, 1, protector.calls, "protection still runs")
}

func TestRun_PRWithoutOutputFails(t *testing.T) {
	fake := happyFake("feature/x", nil)
	fake.Handler = func(cmd exec.Command) (exec.Result, error) {
		if strings.HasPrefix(cmd.String(), "gh pr create") {
			return exec.Result{}, nil
		}
		return fake.Responses[cmd.String()], nil
	}
	protector := &fakeProtector{}
	o, _ := newTestOrchestrator(t, fake, protector)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPullRequest)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StagePullRequest, stageErr.Stage)
	assert.Equal(t, 0, protector.calls, "later stages must not run")
}

func TestRun_PRCommandFailure(t *testing.T) {
	fake := happyFake("feature/x", nil)
	fake.Handler = func(cmd exec.Command) (exec.Result, error) {
		if strings.HasPrefix(cmd.String(), "gh pr create") {
			return exec.Result{Stderr: "a pull request for branch \"feature/x\" already exists", ExitCode: 1}, nil
		}
		return fake.Responses[cmd.String()], nil
	}
	o, _ := newTestOrchestrator(t, fake, &fakeProtector{})

	_, err := o.Run(context.Background())
	require.Error(t, err)

	var failure *exec.CommandFailure
	require.True(t, errors.As(err, &failure))
	assert.Contains(t, failure.Stderr, "already exists")
}

func TestRun_ProtectionFailureIsSoft(t *testing.T) {
	fake := happyFake("feature/x", nil)
	protector := &fakeProtector{err: errors.New("HTTP 403: Upgrade to GitHub Pro")}
	o, _ := newTestOrchestrator(t, fake, protector)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.ProtectionApplied)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "HTTP 403")
}

func TestRun_RepoResolutionFailureIsSoft(t *testing.T) {
	fake := happyFake("feature/x", nil)
	protector := &fakeProtector{}
	o, _ := newTestOrchestrator(t, fake, protector)
	o.resolveRepo = func(string, string, string) (github.Repository, error) {
		return github.Repository{}, errors.New("no git remotes found")
	}

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, protector.calls)
	assert.Contains(t, report.Warnings[0], "no git remotes found")
}

func TestRun_ProtectionUsesProjectRootRemote(t *testing.T) {
	fake := happyFake("feature/x", nil).
		On("git remote get-url origin", exec.Result{Stdout: "git@github.com:acme/resume.git\n"})
	protector := &fakeProtector{}
	o, root := newTestOrchestrator(t, fake, protector)
	o.resolveRepo = github.ResolveRepository

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NotEqual(t, wd, root)

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	remote := fake.Find("git remote get-url origin")
	require.NotNil(t, remote)
	assert.Equal(t, root, remote.Dir)
	assert.True(t, report.ProtectionApplied)
	assert.Equal(t, "acme/resume", protector.repo.String())
}

func TestRun_ConfiguredRepoSkipsRemoteLookup(t *testing.T) {
	fake := happyFake("feature/x", nil)
	protector := &fakeProtector{}
	o, _ := newTestOrchestrator(t, fake, protector)
	o.cfg.Owner, o.cfg.Repo = "octo", "site"
	o.resolveRepo = github.ResolveRepository

	_, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, fake.Called("git remote"))
	assert.Equal(t, "octo/site", protector.repo.String())
}

func TestRun_MissingRemoteIsSoft(t *testing.T) {
	fake := happyFake("feature/x", nil).
		On("git remote get-url origin", exec.Result{Stderr: "error: No such remote 'origin'", ExitCode: 2})
	protector := &fakeProtector{}
	o, _ := newTestOrchestrator(t, fake, protector)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, protector.calls)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "No such remote 'origin'")
}

func TestRun_InstallsMissingGH(t *testing.T) {
	installed := false
	fake := exec.NewFake()
	fake.Handler = func(cmd exec.Command) (exec.Result, error) {
		rendered := cmd.String()
		switch {
		case rendered == "gh --version":
			if !installed {
				return exec.Result{ExitCode: -1}, exec.ErrNotFound("gh")
			}
			return exec.Result{Stdout: "gh version 2.40.0"}, nil
		case cmd.Name == "sh":
			if strings.Contains(rendered, "apt install gh") {
				installed = true
			}
			return exec.Result{}, nil
		case rendered == "gh auth status":
			return exec.Result{Stdout: "Logged in to github.com"}, nil
		case rendered == "git branch --show-current":
			return exec.Result{Stdout: "main"}, nil
		}
		return exec.Result{}, nil
	}
	o, _ := newTestOrchestrator(t, fake, &fakeProtector{})

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.GHInstalled)

	var shells int
	for _, c := range fake.Calls {
		if c.Name == "sh" {
			shells++
		}
	}
	assert.Equal(t, len(installCommands), shells)
}

func TestRun_InstallFailureIsFatal(t *testing.T) {
	fake := exec.NewFake()
	fake.Handler = func(cmd exec.Command) (exec.Result, error) {
		if cmd.String() == "gh --version" {
			return exec.Result{ExitCode: -1}, exec.ErrNotFound("gh")
		}
		if cmd.Name == "sh" {
			return exec.Result{Stderr: "sudo: a password is required", ExitCode: 1}, nil
		}
		return exec.Result{}, nil
	}
	o, root := newTestOrchestrator(t, fake, &fakeProtector{})

	_, err := o.Run(context.Background())
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StagePrerequisites, stageErr.Stage)
	assert.Contains(t, err.Error(), "password is required")

	assert.False(t, fake.Called("gh auth status"))
	_, statErr := os.Stat(filepath.Join(root, WorkflowPath))
	assert.True(t, os.IsNotExist(statErr), "workflow file must not be written after a fatal stage")
}

func TestRun_LoginWhenUnauthenticated(t *testing.T) {
	fake := happyFake("main", nil).
		On("gh auth status", exec.Result{Stderr: "You are not logged into any GitHub hosts.", ExitCode: 1})
	o, _ := newTestOrchestrator(t, fake, &fakeProtector{})

	_, err := o.Run(context.Background())
	require.NoError(t, err)

	login := fake.Find("gh auth login")
	require.NotNil(t, login)
	assert.True(t, login.Interactive)
}

func TestRun_LoginFailureIsFatal(t *testing.T) {
	fake := happyFake("main", nil).
		On("gh auth status", exec.Result{ExitCode: 1}).
		On("gh auth login", exec.Result{ExitCode: 1, Stderr: "login cancelled"})
	o, _ := newTestOrchestrator(t, fake, &fakeProtector{})

	_, err := o.Run(context.Background())
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageAuthentication, stageErr.Stage)
	assert.False(t, fake.Called("git branch"))
}

func TestBuildPullRequest_LimitsCommits(t *testing.T) {
	o, _ := newTestOrchestrator(t, exec.NewFake(), &fakeProtector{})

	var commits []string
	for i := 0; i < 15; i++ {
		commits = append(commits, fmt.Sprintf("c%02d commit number %d", i, i))
	}

	pr, err := o.BuildPullRequest("feature/x", commits)
	require.NoError(t, err)

	assert.Equal(t, TitlePrefix+"x", pr.Title)
	assert.Contains(t, pr.Body, pr.Title, "body must carry the branch-derived title")
	assert.Contains(t, pr.Body, "**Date**: 2024-05-06 07:08:09")
	assert.Contains(t, pr.Body, "Ready for develop branch integration")

	listed := 0
	for _, line := range strings.Split(pr.Body, "\n") {
		if strings.HasPrefix(line, "- c") {
			listed++
		}
	}
	assert.Equal(t, 10, listed)
	assert.Contains(t, pr.Body, "- c09 commit number 9")
	assert.NotContains(t, pr.Body, "c10 commit number 10")
}

func TestBuildPullRequest_NoCommits(t *testing.T) {
	o, _ := newTestOrchestrator(t, exec.NewFake(), &fakeProtector{})

	pr, err := o.BuildPullRequest("feature/x", nil)
	require.NoError(t, err)
	assert.Contains(t, pr.Body, "_No commits ahead of develop._")
}

func TestPullRequestArgs_OmitsEmptyOptionalFlags(t *testing.T) {
	args := PullRequest{Title: "t", Body: "b", Base: "develop", Head: "feature/x"}.Args()
	assert.NotContains(t, args, "--assignee")
	assert.NotContains(t, args, "--label")
}

func TestWorkflowPayload(t *testing.T) {
	payload, err := WorkflowPayload()
	require.NoError(t, err)
	for _, job := range []string{"security-scan:", "documentation-check:", "auto-merge-ready:"} {
		assert.Contains(t, string(payload), job)
	}

	assert.Error(t, validateWorkflow([]byte("name: x\njobs: {}\n")), "missing on")
	assert.Error(t, validateWorkflow([]byte("name: x\non: push\njobs: {}\n")), "no jobs")
	assert.Error(t, validateWorkflow([]byte("name: [\n")), "invalid YAML")
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
