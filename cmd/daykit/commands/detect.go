package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the detected day number",
	Long: `Print the current day (1-5) inferred from the marker directories:

  src/config          missing → day 1
  src/components      missing → day 2
  src/assets/styles   missing → day 3
  src/tests           missing → day 4
  all present         → day 5

Only the number is written to stdout so scripts can capture it.`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	day, err := resolveDay("auto", cfg.ProjectRoot)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), day)
	return nil
}
