package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List problems due for review today",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		due, err := a.Problems.Due(cmd.Context(), limit)
		if err != nil {
			return err
		}

		today := spacedrep.FormatDay(a.Scheduler.Engine().Today())
		if len(due) == 0 {
			fmt.Println(theme.Scheduled.Render("Nothing due on " + today + "."))
			return nil
		}
		fmt.Println(theme.Heading.Render(fmt.Sprintf("Due on %s (%d)", today, len(due))))
		printSummaries(due)
		return nil
	},
}

func init() {
	dueCmd.Flags().IntP("limit", "n", spacedrep.NoLimit, "Maximum number of problems (negative = all)")
}
