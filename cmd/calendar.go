package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/ui/components"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show how many reviews are booked on each upcoming day",
	RunE: func(cmd *cobra.Command, args []string) error {
		fromFlag, _ := cmd.Flags().GetString("from")
		days, _ := cmd.Flags().GetInt("days")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		from := a.Scheduler.Engine().Today()
		if fromFlag != "" {
			if from, err = spacedrep.ParseDay(fromFlag); err != nil {
				return err
			}
		}

		loads, err := a.Scheduler.Calendar(cmd.Context(), from, days)
		if err != nil {
			return err
		}

		fmt.Println(theme.Heading.Render("Review calendar"))
		for _, l := range loads {
			label := l.Day + " " + l.Date.Weekday().String()[:3]
			fmt.Println(components.NewLoadBar(label, l.Count, l.Capacity, 12).View())
		}
		return nil
	},
}

func init() {
	calendarCmd.Flags().String("from", "", "First day, YYYY-MM-DD (default today)")
	calendarCmd.Flags().Int("days", 14, "Number of days to show")
}
