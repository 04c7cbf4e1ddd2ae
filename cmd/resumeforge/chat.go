package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the AI assistant about your CV",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var chatCVID string

func init() {
	chatCmd.Flags().StringVar(&chatCVID, "cv", "", "CV id to discuss")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	message := strings.Join(args, " ")

	var cvID *uuid.UUID
	if chatCVID != "" {
		id, err := uuid.Parse(chatCVID)
		if err != nil {
			return fmt.Errorf("invalid CV id %q: %w", chatCVID, err)
		}
		cvID = &id
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if err := preflightLLM(ctx, a); err != nil {
		return err
	}

	result, err := a.Assistant.ChatAboutCV(ctx, message, cvID, nil)
	if err != nil {
		return quotaError(a, err)
	}
	a.Subscription.IncrementAPIUsage()

	fmt.Fprintln(os.Stdout, result.Reply)
	if len(result.Suggestions) > 0 {
		fmt.Fprintln(os.Stdout, "\nSuggestions:")
		for _, s := range result.Suggestions {
			fmt.Fprintf(os.Stdout, "  • %s\n", s)
		}
	}
	return nil
}
