package prflow

import (
	"errors"
	"fmt"
)

// Stage identifies one step of the PR workflow
type Stage string

const (
	StagePrerequisites  Stage = "prerequisites"
	StageAuthentication Stage = "authentication"
	StageBranch         Stage = "branch-inspection"
	StageWorkflowFile   Stage = "workflow-file"
	StagePullRequest    Stage = "pull-request"
	StageProtection     Stage = "branch-protection"
)

// ErrNoPullRequest is returned when gh pr create reports success but prints no URL
var ErrNoPullRequest = errors.New("pull request creation produced no output")

// StageError is a fatal failure that halted the workflow at Stage
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
