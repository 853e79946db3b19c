package commands

import (
	"path/filepath"

	"github.com/dyluth/daykit/internal/config"
	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/logging"
	"github.com/dyluth/daykit/internal/printer"
	"github.com/dyluth/daykit/internal/scaffold"
	"github.com/spf13/cobra"
)

// env bundles what every command that touches the project needs
type env struct {
	cfg *config.Config
	log *logging.Logger
}

// loadConfig reads daykit.yml from --config or the project root.
// An explicit --config must exist; the default location is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	required := cmd.Flags().Changed("config")
	if path == "" {
		path = filepath.Join(rootDir, config.DefaultFile)
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, printer.ErrorWithContext(
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
		return nil, printer.Error("invalid configuration", err.Error(), nil)
	}
	return cfg, nil
}

// openEnv loads the configuration and opens the append-only automation log
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.Open(cfg.LogPath(), cmd.OutOrStdout())
	if err != nil {
		return nil, printer.Error(
			"failed to open automation log",
			err.Error(),
			[]string{"Check that the project root is writable"},
		)
	}
	log.Info("Session %s started", log.Session())

	return &env{cfg: cfg, log: log}, nil
}

func (e *env) scaffolder() *scaffold.Scaffolder {
	runner := exec.NewRunner(newExecutor(), e.log)
	return scaffold.New(e.cfg.ProjectRoot, e.cfg.HelperBinary, runner, e.log)
}

func (e *env) close() {
	if err := e.log.Close(); err != nil {
		printer.Warning("failed to flush automation log: %v\n", err)
	}
}

// resolveDay parses a --day value, detecting the day under root for "auto"
func resolveDay(value, root string) (scaffold.Day, error) {
	day, explicit, err := scaffold.ParseDay(value)
	if err != nil {
		return 0, printer.Error(
			"invalid --day value",
			err.Error(),
			[]string{"Use --day=auto to detect the day from the project tree"},
		)
	}
	if !explicit {
		day = scaffold.Detect(root)
	}
	return day, nil
}
