package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var addCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Record an accepted solution and start tracking it",
	Long: "Record an accepted solution the same way the browser extension does. " +
		"Pass --code-file - to read the solution from stdin.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		language, _ := cmd.Flags().GetString("language")
		codeFile, _ := cmd.Flags().GetString("code-file")

		code, err := readCode(cmd, codeFile)
		if err != nil {
			return err
		}

		in := problems.SyncInput{
			Slug:       args[0],
			Title:      title,
			Difficulty: difficulty,
			Code:       code,
			Language:   language,
		}
		if cmd.Flags().Changed("number") {
			n, _ := cmd.Flags().GetInt64("number")
			in.ProblemNumber = &n
		}
		if in.Title == "" {
			in.Title = in.Slug
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Problems.Sync(cmd.Context(), in)
		if err != nil {
			return err
		}

		switch {
		case res.Created:
			fmt.Println(theme.Scheduled.Render("Added"), res.Problem.Title)
		default:
			fmt.Println(theme.Hint.Render("Updated"), res.Problem.Title)
		}
		printSchedule(res.Problem.Slug, res.Review, false, false)
		if res.ExplanationRequested {
			fmt.Println(theme.Hint.Render("Generating explanation..."))
		}
		return nil
	},
}

func readCode(cmd *cobra.Command, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--code-file is required")
	}
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read code file: %w", err)
	}
	return string(b), nil
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "Problem title (defaults to the slug)")
	addCmd.Flags().StringP("difficulty", "d", "Medium", "Easy, Medium or Hard")
	addCmd.Flags().StringP("language", "l", "", "Solution language")
	addCmd.Flags().StringP("code-file", "f", "", "File with the accepted solution, - for stdin")
	addCmd.Flags().Int64("number", 0, "LeetCode problem number")
	_ = addCmd.MarkFlagRequired("language")
}
