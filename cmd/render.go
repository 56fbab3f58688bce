package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

const rule = "─"

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

// localTime reformats a stored RFC 3339 timestamp for display.
func localTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// printSummaries prints one row per problem with its next review.
func printSummaries(rows []problems.Summary) {
	fmt.Printf("%-36s  %-8s  %-10s  %4s  %s\n", "Slug", "Diff", "Next", "Rep", "Status")
	fmt.Println(strings.Repeat(rule, 72))
	for _, r := range rows {
		next, rep, status := "-", "-", "untracked"
		if r.Schedule != nil {
			next = spacedrep.FormatDay(r.Schedule.NextReviewDate)
			rep = fmt.Sprint(r.Schedule.RepetitionCount)
			status = string(r.Status)
		}
		fmt.Printf("%-36s  %s  %-10s  %4s  %s\n",
			truncate(r.Problem.Slug, 36),
			theme.Difficulty(r.Problem.Difficulty).Render(fmt.Sprintf("%-8s", r.Problem.Difficulty)),
			next, rep,
			theme.Status(status).Render(status))
	}
}

// printSchedule prints the schedule line shown after add and review.
func printSchedule(slug string, st spacedrep.ScheduleState, shifted, degraded bool) {
	line := fmt.Sprintf("%s  next review %s (repetition %d)",
		theme.Title.Render(slug), spacedrep.FormatDay(st.NextReviewDate), st.RepetitionCount)
	switch {
	case degraded:
		line += "  " + theme.Full.Render("every day in the horizon is full")
	case shifted:
		line += "  " + theme.Shifted.Render("moved past a full day")
	}
	fmt.Println(line)
}
