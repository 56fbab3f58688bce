package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Spread every tracked problem out again under the daily limit",
	Long: "Lay all tracked problems out again in their current order, starting " +
		"--start-offset days from today and filling each day up to the daily limit. " +
		"Repetition counts are not changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		offset, _ := cmd.Flags().GetInt("start-offset")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		moves, err := a.Scheduler.Rebalance(ctx, spacedrep.RebalanceOptions{
			StartOffset: offset,
			DryRun:      dryRun,
		})
		if err != nil {
			return err
		}

		if len(moves) == 0 {
			fmt.Println(theme.Scheduled.Render("Schedule already balanced."))
			return nil
		}

		repo := a.Store.ProblemRepo()
		fmt.Printf("%-36s  %-10s     %s\n", "Slug", "From", "To")
		fmt.Println(strings.Repeat(rule, 64))
		for _, m := range moves {
			slug := fmt.Sprintf("#%d", m.ProblemID)
			if p, err := repo.GetProblemByID(ctx, m.ProblemID); err == nil {
				slug = p.Slug
			}
			fmt.Printf("%-36s  %-10s  →  %s\n",
				truncate(slug, 36), spacedrep.FormatDay(m.From), spacedrep.FormatDay(m.To))
		}

		verb := "Moved"
		if dryRun {
			verb = "Would move"
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("%s %d problem(s).", verb, len(moves))))
		return nil
	},
}

func init() {
	rebalanceCmd.Flags().Bool("dry-run", false, "Print the moves without saving them")
	rebalanceCmd.Flags().Int("start-offset", 0, "First day to use, in days from today (0 = first ladder interval)")
}
