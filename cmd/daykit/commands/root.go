package commands

import (
	"fmt"

	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/printer"
	"github.com/dyluth/daykit/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

var (
	rootDir      string
	configPath   string
	dayFlag      string
	setupFlag    bool
	validateFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "daykit",
	Short: "daykit - day-based project scaffolding",
	Long: `daykit advances a project through a five-day development plan.

The current day is detected from marker directories under the project root
(or given with --day). Running a day regenerates everything that day and all
earlier days produce, and refreshes the git helper script at
scripts/automation/git-auto.sh. Nothing is ever removed.

Every action is appended to automation.log in the project root.`,
	Version: version,
	Args:    cobra.NoArgs,
	RunE:    runScaffold,
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// newExecutor builds the process executor. Replaced in tests.
var newExecutor = func() exec.Executor {
	return exec.NewSystem()
}

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
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "", "Path to config file (default: <root>/daykit.yml)")

	rootCmd.Flags().StringVar(&dayFlag, "day", scaffold.AutoDetect, "Day to automate (1-5) or 'auto' to detect")
	rootCmd.Flags().BoolVar(&setupFlag, "setup", false, "Validate the environment before running the day")
	rootCmd.Flags().BoolVar(&validateFlag, "validate", false, "Validate the current setup before running the day")
}

func runScaffold(cmd *cobra.Command, args []string) error {
	day, explicit, err := scaffold.ParseDay(dayFlag)
	if err != nil {
		return printer.Error(
			"invalid --day value",
			err.Error(),
			[]string{"Use --day=auto to detect the day from the project tree"},
		)
	}

	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	s := env.scaffolder()

	if setupFlag || validateFlag {
		results := s.Validate(cmd.Context())
		counts := scaffold.Summary(results)
		printer.Info("Validation: %d ok, %d warnings, %d errors\n",
			counts[scaffold.ProbeOK], counts[scaffold.ProbeWarn], counts[scaffold.ProbeError])
	}

	if !explicit {
		day = s.Detect()
		env.log.Info("Auto-detected: Day %d (%s)", day, day.Name())
	}

	result, err := s.Run(cmd.Context(), day)
	if err != nil {
		completed := 0
		if result != nil {
			completed = len(result.Steps)
		}
		return printer.ErrorWithContext(
			fmt.Sprintf("Day %d automation failed", day),
			err.Error(),
			map[string]string{
				"Project root": env.cfg.ProjectRoot,
				"Log file":     env.cfg.LogPath(),
				"Completed":    fmt.Sprintf("%d step(s)", completed),
			},
			[]string{"Check the automation log for the failing step, fix it, and re-run"},
		)
	}

	printer.Info("\n")
	printer.Success("Day %d automation complete! Check %s for details.\n", day, env.cfg.LogFile)
	return nil
}
