package commands

import (
	"fmt"

	"github.com/dyluth/daykit/internal/printer"
	"github.com/dyluth/daykit/internal/scaffold"
	"github.com/spf13/cobra"
)

var planDay string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the steps a day would run without writing anything",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDay, "day", scaffold.AutoDetect, "Day to plan (1-5) or 'auto' to detect")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	day, err := resolveDay(planDay, cfg.ProjectRoot)
	if err != nil {
		return err
	}

	printer.Banner(fmt.Sprintf("Day %d: %s", day, day.Name()))
	for i, step := range scaffold.Plan(day) {
		when := "every run"
		if step.Day > 0 {
			when = fmt.Sprintf("day %d+", step.Day)
		}
		printer.Step(i+1, "%s (%s)", step.Name, when)
	}
	return nil
}
