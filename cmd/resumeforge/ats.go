package main

import (
	"context"

	"github.com/spf13/cobra"
)

var atsCmd = &cobra.Command{
	Use:   "ats <cv-id>",
	Short: "Score a CV against applicant tracking systems",
	Args:  cobra.ExactArgs(1),
	RunE:  runATS,
}

var (
	atsRole string
	atsJob  string
)

func init() {
	atsCmd.Flags().StringVar(&atsRole, "role", "", "Target role to score against")
	atsCmd.Flags().StringVar(&atsJob, "job-description", "", "Job description text to score against")
	rootCmd.AddCommand(atsCmd)
}

func runATS(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	id, err := parseCVID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	cv, err := a.CVs.LoadCV(ctx, id)
	if err != nil {
		return err
	}

	if err := preflightLLM(ctx, a); err != nil {
		return err
	}

	analysis, err := a.Assistant.AnalyzeATS(ctx, &cv.ID, cv.MarkdownContent, atsRole, atsJob)
	if err != nil {
		return quotaError(a, err)
	}
	a.Subscription.IncrementAPIUsage()

	printer().PrintATSAnalysis(analysis)
	return nil
}
