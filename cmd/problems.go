package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var problemsCmd = &cobra.Command{
	Use:     "problems",
	Aliases: []string{"p"},
	Short:   "Browse and manage tracked problems",
}

var problemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := store.ProblemQuery{}
		q.Search, _ = cmd.Flags().GetString("search")
		q.Limit, _ = cmd.Flags().GetInt("limit")
		if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
			var err error
			if q.Difficulty, err = problems.ParseDifficulty(d); err != nil {
				return err
			}
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.Problems.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No problems found.")
			return nil
		}
		printSummaries(rows)
		return nil
	},
}

var problemsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a problem with its schedule, notes and explanation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withCode, _ := cmd.Flags().GetBool("code")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Problems.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDetail(d, withCode)
		return nil
	},
}

var problemsHistoryCmd = &cobra.Command{
	Use:   "history <slug>",
	Short: "Show the scheduling decisions made for a problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.Problems.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No history yet.")
			return nil
		}

		fmt.Printf("%-19s  %-9s  %-5s  %-10s  %-10s  %s\n",
			"Time", "Outcome", "Rep", "Requested", "Scheduled", "")
		fmt.Println(strings.Repeat(rule, 72))
		for _, e := range events {
			flag := ""
			switch {
			case e.Degraded:
				flag = theme.Full.Render("degraded")
			case e.Shifted:
				flag = theme.Shifted.Render("shifted")
			}
			fmt.Printf("%-19s  %-9s  %d→%-2d  %-10s  %-10s  %s\n",
				localTime(e.Timestamp), e.Outcome, e.FromCount, e.ToCount,
				e.RequestedDay, e.ScheduledDay, flag)
		}
		return nil
	},
}

var problemsRmCmd = &cobra.Command{
	Use:   "rm <slug>",
	Short: "Delete a problem and everything attached to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Problems.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

func printDetail(d *problems.Detail, withCode bool) {
	p := d.Problem
	title := p.Title
	if p.ProblemNumber != nil {
		title = fmt.Sprintf("%d. %s", *p.ProblemNumber, p.Title)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render(title) + "  " + theme.Difficulty(p.Difficulty).Render(p.Difficulty) + "\n")
	b.WriteString(theme.Label.Render("Slug") + p.Slug + "\n")
	if st := d.Schedule; st != nil {
		b.WriteString(theme.Label.Render("Next review") + spacedrep.FormatDay(st.NextReviewDate) +
			"  " + theme.Status(string(d.Status)).Render(string(d.Status)) + "\n")
		b.WriteString(theme.Label.Render("Repetition") + fmt.Sprintf("%d (%d reviews)", st.RepetitionCount, st.TotalReviews) + "\n")
		if st.LastReviewedDate != nil {
			b.WriteString(theme.Label.Render("Last review") + spacedrep.FormatDay(*st.LastReviewedDate) + "\n")
		}
		if st.Confidence != nil {
			b.WriteString(theme.Label.Render("Confidence") + fmt.Sprintf("%d/5", *st.Confidence) + "\n")
		}
	}
	if d.Solution != nil {
		b.WriteString(theme.Label.Render("Language") + d.Solution.Language)
	}
	fmt.Println(theme.Card.Render(b.String()))

	if withCode && d.Solution != nil {
		fmt.Println(d.Solution.Code)
	}

	if e := d.Explanation; e != nil {
		fmt.Println(theme.Heading.Render("Explanation") + "  " + theme.Hint.Render(e.ApproachTag))
		fmt.Println(e.CoreIdea)
		for i, step := range e.ExplanationSteps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
		fmt.Printf("Time %s, space %s\n", e.TimeComplexity, e.SpaceComplexity)
		fmt.Println(theme.Label.Render("Insight") + e.KeyInsight)
		fmt.Println(theme.Label.Render("Pitfall") + e.CommonPitfall)
		if e.Roast != "" {
			fmt.Println(theme.Hint.Render(e.Roast))
		}
	}

	if len(d.Notes) > 0 {
		fmt.Println(theme.Heading.Render("Notes"))
		printNotes(d.Notes)
	}
}

func init() {
	problemsListCmd.Flags().StringP("difficulty", "d", "", "Only Easy, Medium or Hard")
	problemsListCmd.Flags().StringP("search", "s", "", "Match title or slug")
	problemsListCmd.Flags().IntP("limit", "n", 0, "Maximum number of problems (0 = all)")
	problemsShowCmd.Flags().Bool("code", false, "Print the saved solution")
	problemsHistoryCmd.Flags().IntP("limit", "n", 20, "Number of events to show")

	problemsCmd.AddCommand(problemsListCmd)
	problemsCmd.AddCommand(problemsShowCmd)
	problemsCmd.AddCommand(problemsHistoryCmd)
	problemsCmd.AddCommand(problemsRmCmd)
}
