package commands

import (
	"github.com/dyluth/daykit/internal/printer"
	"github.com/dyluth/daykit/internal/scaffold"
	"github.com/spf13/cobra"
)

var commitDay string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage everything and commit with the day's message",
	Long: `Stage all changes under the project root and commit them with the
conventional message for the day, e.g.

  feat: Complete Day 3 - UI integration components

This is the same dispatch the generated scripts/automation/git-auto.sh performs.
An empty working tree is reported, not treated as a failure.`,
	Args: cobra.NoArgs,
	RunE: runCommit,
}

func init() {
	commitCmd.Flags().StringVar(&commitDay, "day", scaffold.AutoDetect, "Day whose message to use (1-5) or 'auto' to detect")
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	day, err := resolveDay(commitDay, env.cfg.ProjectRoot)
	if err != nil {
		return err
	}

	result, err := env.scaffolder().Commit(cmd.Context(), day)
	if err != nil {
		return printer.ErrorWithContext(
			"commit failed",
			err.Error(),
			map[string]string{
				"Project root": env.cfg.ProjectRoot,
				"Message":      day.CommitMessage(),
			},
			[]string{"Check that the project root is a Git repository with a configured identity"},
		)
	}

	if !result.Committed {
		printer.Info("Nothing to commit\n")
		return nil
	}
	printer.Success("Committed: %s\n", result.Message)
	return nil
}
