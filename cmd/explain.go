package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/explain"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var explainCmd = &cobra.Command{
	Use:   "explain <slug>",
	Short: "Generate or show the AI explanation of a saved solution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		_, cached, err := a.Explainer.Explain(ctx, args[0], force)
		if errors.Is(err, explain.ErrDisabled) {
			return fmt.Errorf("%w: set GEMINI_API_KEY or OPENAI_API_KEY, or configure llm.provider", err)
		}
		if err != nil {
			return err
		}

		d, err := a.Problems.Get(ctx, args[0])
		if err != nil {
			return err
		}
		printDetail(d, false)
		if cached {
			fmt.Println(theme.Hint.Render("cached; pass --force to regenerate"))
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().Bool("force", false, "Regenerate even if an explanation exists")
}
