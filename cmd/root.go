package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "lchelper",
	Short: "Spaced-repetition tracker for solved LeetCode problems",
	Long: "lchelper keeps every accepted LeetCode solution on a review ladder " +
		"(2, 3, 7, 21, 60 days) and never books more reviews on one day than the daily limit.",
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LCH_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(rebalanceCmd)
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// openApp wires the application from the --db and --config flags. Quiet
// keeps one-shot commands from printing info logs over their output.
func openApp(cmd *cobra.Command, quiet bool) (*app.App, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	cfgPath, _ := cmd.Flags().GetString("config")
	return app.Open(cmd.Context(), app.Options{
		ConfigPath: cfgPath,
		DBPath:     dbPath,
		Quiet:      quiet,
	})
}
