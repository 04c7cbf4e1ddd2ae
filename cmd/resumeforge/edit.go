package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <cv-id> <instruction>",
	Short: "Rewrite a loaded CV with an AI instruction",
	Long: "Loads the CV into the draft, applies the instruction via the AI " +
		"backend, and prints the edit id for undo. The stored CV is not " +
		"modified until you save the draft.",
	Args: cobra.MinimumNArgs(2),
	RunE: runEdit,
}

var undoCmd = &cobra.Command{
	Use:   "undo <edit-id>",
	Short: "Undo an inline edit and everything after it",
	Args:  cobra.ExactArgs(1),
	RunE:  runUndo,
}

var (
	editSection string
	editSave    bool
	undoSave    bool
)

func init() {
	editCmd.Flags().StringVarP(&editSection, "section", "s", "", "Restrict the edit to one section")
	editCmd.Flags().BoolVar(&editSave, "save", false, "Save the edited draft back to the CV")
	undoCmd.Flags().BoolVar(&undoSave, "save", false, "Save the restored content back to the CV")
	rootCmd.AddCommand(editCmd, undoCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	id, err := parseCVID(args[0])
	if err != nil {
		return err
	}
	instruction := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if _, err := a.CVs.LoadCV(ctx, id); err != nil {
		return err
	}

	var section *string
	if editSection != "" {
		section = &editSection
	}

	if err := preflightLLM(ctx, a); err != nil {
		return err
	}

	result, err := a.Assistant.InlineEdit(ctx, id, instruction, section)
	if err != nil {
		return quotaError(a, err)
	}
	a.Subscription.IncrementAPIUsage()

	fmt.Fprintf(os.Stdout, "Edit applied (id %s)\n", result.Record.ID)
	for _, change := range result.Record.ChangesMade {
		fmt.Fprintf(os.Stdout, "  • %s\n", change)
	}

	if editSave {
		draft := a.CVs.Draft.Get()
		if _, err := a.CVs.UpdateCV(ctx, id, draft.Name, draft.MarkdownContent, draft.Settings); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Draft saved")
	} else {
		fmt.Fprintln(os.Stdout, "\nEdited draft:")
		fmt.Fprintln(os.Stdout, result.EditedContent)
	}
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	editID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid edit id %q: %w", args[0], err)
	}

	result, err := a.Assistant.UndoInlineEdit(editID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Undid %d edit(s); draft restored\n", result.Discarded)

	if undoSave {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		existing, err := a.CVs.LoadCV(ctx, result.CVID)
		if err != nil {
			return err
		}
		if _, err := a.CVs.UpdateCV(ctx, result.CVID, existing.Name, result.RestoredContent, existing.Settings); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Restored content saved")
	}
	return nil
}
