package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <slug> <SUCCESS|PARTIAL|FAIL>",
	Short: "Record the outcome of re-solving a problem",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var confidence *int
		if cmd.Flags().Changed("confidence") {
			c, _ := cmd.Flags().GetInt("confidence")
			confidence = &c
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		// Outcomes typed on the command line are case-insensitive.
		outcome := strings.ToUpper(strings.TrimSpace(args[1]))
		res, err := a.Problems.Review(cmd.Context(), args[0], outcome, confidence)
		if err != nil {
			return err
		}
		printSchedule(res.Problem.Slug, res.Schedule, res.Shifted, res.Degraded)
		return nil
	},
}

func init() {
	reviewCmd.Flags().IntP("confidence", "c", 0, "Self-rated confidence, 1-5")
}
