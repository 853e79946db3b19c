package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dyluth/daykit/internal/config"
	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/logging"
	"github.com/dyluth/daykit/internal/prflow"
	"github.com/dyluth/daykit/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	rootDir    string
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prflow",
	Short: "prflow - automated pull request workflow",
	Long: `prflow prepares a repository for reviewed, automated delivery:

  1. Makes sure the GitHub CLI is installed and authenticated
  2. Writes the .github/workflows/automated-qa.yml CI workflow
  3. Opens a pull request with a canned description when on a feature branch
  4. Protects the base branch (failures here are only warnings)

Settings come from daykit.yml in the project root when present.`,
	Version: version,
	Args:    cobra.NoArgs,
	RunE:    runWorkflow,
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

var (
	// newExecutor builds the process executor. Replaced in tests.
	newExecutor = func() exec.Executor {
		return exec.NewSystem()
	}

	// orchestratorOptions are passed to every orchestrator. Tests use them to
	// replace the GitHub API.
	orchestratorOptions []prflow.Option
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.Flags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.Flags().StringVarP(&configPath, "config", "f", "", "Path to config file (default: <root>/daykit.yml)")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = filepath.Join(rootDir, config.DefaultFile)
	}
	cfg, err := config.Load(path, cmd.Flags().Changed("config"))
	if err != nil {
		return printer.ErrorWithContext(
			"failed to load configuration",
			err.Error(),
			map[string]string{"Config file": path},
			[]string{"Fix the config file or remove it to use the defaults"},
		)
	}
	if cmd.Flags().Changed("root") {
		cfg.ProjectRoot = rootDir
	}
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}

	log := logging.New(cmd.OutOrStdout())
	log.Info("Session %s started", log.Session())

	printer.Banner("🤖 AUTOMATED PROFESSIONAL WORKFLOW SYSTEM")

	runner := exec.NewRunner(newExecutor(), log)
	report, err := prflow.New(cfg, runner, log, orchestratorOptions...).Run(cmd.Context())
	if err != nil {
		return stageFailure(cfg, report, err)
	}

	printSummary(cfg, report)
	return nil
}

// stageFailure renders a fatal workflow error with stage-specific advice
func stageFailure(cfg *config.Config, report *prflow.Report, err error) error {
	details := map[string]string{"Project root": cfg.ProjectRoot}
	if report != nil && report.Branch != "" {
		details["Branch"] = report.Branch
	}

	var stageErr *prflow.StageError
	if !errors.As(err, &stageErr) {
		return printer.ErrorWithContext("workflow failed", err.Error(), details, nil)
	}
	details["Stage"] = string(stageErr.Stage)

	var suggestions []string
	switch stageErr.Stage {
	case prflow.StagePrerequisites:
		suggestions = []string{"Install the GitHub CLI manually: https://cli.github.com"}
	case prflow.StageAuthentication:
		suggestions = []string{"Run 'gh auth login' and re-run prflow"}
	case prflow.StageBranch:
		suggestions = []string{"Run prflow from inside a Git repository, or pass --root"}
	case prflow.StagePullRequest:
		suggestions = []string{
			fmt.Sprintf("Push the branch first: git push -u origin %s", details["Branch"]),
			"Check whether a pull request for this branch already exists: gh pr list --head " + details["Branch"],
		}
	}

	return printer.ErrorWithContext("❌ "+stageErr.Error(), stageErr.Err.Error(), details, suggestions)
}

func printSummary(cfg *config.Config, report *prflow.Report) {
	printer.Info("\n")
	printer.Banner("🎉 AUTOMATED WORKFLOW SETUP COMPLETE!")
	printer.Info("📍 Branch: %s\n", report.Branch)
	if report.GHInstalled {
		printer.Success("GitHub CLI installed\n")
	}
	printer.Success("GitHub Actions workflow written: %s\n", report.WorkflowFile)
	if report.PullRequestURL != "" {
		printer.Success("PR created: %s\n", report.PullRequestURL)
	}
	if report.ProtectionApplied {
		printer.Success("Branch protection enabled on %s\n", cfg.BaseBranch)
	}
	for _, w := range report.Warnings {
		printer.Warning("%s\n", w)
	}
}
