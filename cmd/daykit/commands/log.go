package commands

import (
	"errors"
	"time"

	"github.com/dyluth/daykit/internal/history"
	"github.com/dyluth/daykit/internal/logging"
	"github.com/dyluth/daykit/internal/printer"
	"github.com/dyluth/daykit/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	logSince    string
	logUntil    string
	logLevel    string
	logSession  string
	logContains string
	logOutput   string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show entries from the automation log",
	Long: `Show entries from the automation log, optionally filtered.

Time filters accept durations counted back from now (1h30m), dates
(2025-10-29) or RFC3339 timestamps. --session accepts a full session id,
a prefix of at least 6 characters, or "last".

Examples:
  daykit log --since 1h --level warn
  daykit log --session last --output jsonl | jq .message`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVar(&logSince, "since", "", "Only entries at or after this time")
	logCmd.Flags().StringVar(&logUntil, "until", "", "Only entries at or before this time")
	logCmd.Flags().StringVar(&logLevel, "level", "", "Minimum level: info, warn or error")
	logCmd.Flags().StringVar(&logSession, "session", "", "Session id, prefix, or 'last'")
	logCmd.Flags().StringVar(&logContains, "contains", "", "Only entries whose message contains this text")
	logCmd.Flags().StringVarP(&logOutput, "output", "o", string(history.OutputFormatDefault), "Output format: default or jsonl")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	since, until, err := timespec.ParseRange(logSince, logUntil, time.Now())
	if err != nil {
		return printer.Error("invalid time filter", err.Error(), nil)
	}

	criteria := &history.Criteria{
		Since:    since,
		Until:    until,
		Session:  logSession,
		Contains: logContains,
	}
	if logLevel != "" {
		if criteria.MinLevel, err = logging.ParseLevel(logLevel); err != nil {
			return printer.Error("invalid --level value", err.Error(), nil)
		}
	}

	err = history.List(cfg.LogPath(), history.OutputFormat(logOutput), criteria, cmd.OutOrStdout())
	if err == nil {
		return nil
	}

	var ambiguous *history.AmbiguousError
	switch {
	case errors.As(err, &ambiguous):
		return printer.Error("ambiguous session", history.FormatAmbiguousError(ambiguous), nil)
	case errors.Is(err, history.ErrNoLog):
		return printer.Error(
			"no automation log yet",
			err.Error(),
			[]string{"Run daykit first, it creates the log on every run"},
		)
	default:
		return printer.Error("failed to read automation log", err.Error(), nil)
	}
}
