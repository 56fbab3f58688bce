package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lchelper/lchelper/internal/store"
	"github.com/lchelper/lchelper/internal/ui/theme"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Keep recall and deep-dive notes on a problem",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <slug> <content...>",
	Short: "Add a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		noteType, _ := cmd.Flags().GetString("type")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Problems.AddNote(cmd.Context(), args[0], noteType, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println("Added note", n.ID)
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list <slug>",
	Short: "List a problem's notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		notes, err := a.Problems.Notes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			fmt.Println("No notes.")
			return nil
		}
		printNotes(notes)
		return nil
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id> <content...>",
	Short: "Replace a note's content",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Problems.EditNote(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Println("Updated note", args[0])
		return nil
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Problems.DeleteNote(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted note", args[0])
		return nil
	},
}

func printNotes(notes []store.NoteData) {
	for _, n := range notes {
		fmt.Printf("%s  %s  %s\n", theme.Hint.Render(n.ID), theme.Label.Render(n.Type), n.Content)
	}
}

func init() {
	noteAddCmd.Flags().StringP("type", "t", store.NoteRecall, "RECALL or DEEP")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteEditCmd)
	noteCmd.AddCommand(noteRmCmd)
}
