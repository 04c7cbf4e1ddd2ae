package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resumeforge/resumeforge-go/internal/cv"
	"github.com/resumeforge/resumeforge-go/internal/types"
)

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Manage your CVs",
}

var cvListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your CVs",
	RunE:  runCVList,
}

var cvShowCmd = &cobra.Command{
	Use:   "show <cv-id>",
	Short: "Show a CV's markdown content",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVShow,
}

var cvCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new CV",
	RunE:  runCVCreate,
}

var cvUpdateCmd = &cobra.Command{
	Use:   "update <cv-id>",
	Short: "Replace a CV's markdown content from a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVUpdate,
}

var cvDeleteCmd = &cobra.Command{
	Use:   "delete <cv-id>",
	Short: "Delete a CV",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVDelete,
}

var cvPDFCmd = &cobra.Command{
	Use:   "pdf <cv-id>",
	Short: "Download a CV as PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVPDF,
}

var cvMarkdownCmd = &cobra.Command{
	Use:   "markdown <cv-id>",
	Short: "Download a CV as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVMarkdown,
}

var (
	cvName        string
	cvContentFile string
	cvTemplateID  string
	cvOutFile     string
)

func init() {
	cvCreateCmd.Flags().StringVarP(&cvName, "name", "n", "", "CV name (required)")
	cvCreateCmd.Flags().StringVarP(&cvContentFile, "content", "c", "", "Path to a markdown file with the initial content")
	cvCreateCmd.Flags().StringVar(&cvTemplateID, "template", "", "Template id to create from")
	cvCreateCmd.MarkFlagRequired("name")

	cvUpdateCmd.Flags().StringVarP(&cvContentFile, "content", "c", "", "Path to a markdown file with the new content (required)")
	cvUpdateCmd.Flags().StringVarP(&cvName, "name", "n", "", "New CV name")
	cvUpdateCmd.MarkFlagRequired("content")

	cvPDFCmd.Flags().StringVarP(&cvOutFile, "out", "o", "", "Output filename (defaults to the server's suggestion)")
	cvMarkdownCmd.Flags().StringVarP(&cvOutFile, "out", "o", "", "Output filename (defaults to the server's suggestion)")

	cvCmd.AddCommand(cvListCmd, cvShowCmd, cvCreateCmd, cvUpdateCmd, cvDeleteCmd, cvPDFCmd, cvMarkdownCmd)
	rootCmd.AddCommand(cvCmd)
}

func parseCVID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid CV id %q: %w", arg, err)
	}
	return id, nil
}

func runCVList(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	cvs, err := a.CVs.LoadCVs(ctx)
	if err != nil {
		return err
	}
	printer().PrintCVList(cvs)
	return nil
}

func runCVShow(cmd *cobra.Command, args []string) error {
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

	loaded, err := a.CVs.LoadCV(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "# %s (%s)\n\n", loaded.Name, loaded.ID)
	fmt.Fprintln(os.Stdout, loaded.MarkdownContent)
	return nil
}

func runCVCreate(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}

	content := ""
	if cvContentFile != "" {
		data, err := os.ReadFile(cvContentFile)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}

	var templateID *uuid.UUID
	if cvTemplateID != "" {
		id, err := uuid.Parse(cvTemplateID)
		if err != nil {
			return fmt.Errorf("invalid template id %q: %w", cvTemplateID, err)
		}
		templateID = &id
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if err := preflightCVCreate(ctx, a); err != nil {
		return err
	}

	created, err := a.CVs.CreateCV(ctx, cvName, content, nil, templateID)
	if err != nil {
		return quotaError(a, err)
	}
	a.Subscription.IncrementCVUsage()
	fmt.Fprintf(os.Stdout, "Created %q (%s)\n", created.Name, created.ID)
	return nil
}

func runCVUpdate(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	id, err := parseCVID(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cvContentFile)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	updated, err := updateCV(ctx, a.CVs, id, cvName, string(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Updated %q (%s)\n", updated.Name, updated.ID)
	return nil
}

// updateCV replaces a CV's content, carrying the stored name and settings
// forward. A non-empty name renames the CV; settings always come from the
// stored CV, so an update can never reset fonts, margins, or theme to
// defaults.
func updateCV(ctx context.Context, cvs *cv.Store, id uuid.UUID, name, content string) (*types.CV, error) {
	existing, err := cvs.LoadCV(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = existing.Name
	}
	return cvs.UpdateCV(ctx, id, name, content, existing.Settings)
}

func runCVDelete(cmd *cobra.Command, args []string) error {
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

	if err := a.CVs.DeleteCV(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted %s\n", id)
	return nil
}

func runCVPDF(cmd *cobra.Command, args []string) error {
	return downloadCV(args[0], "pdf")
}

func runCVMarkdown(cmd *cobra.Command, args []string) error {
	return downloadCV(args[0], "markdown")
}

func downloadCV(arg, format string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	id, err := parseCVID(arg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	var filename string
	switch format {
	case "pdf":
		filename, err = a.CVs.DownloadPDF(ctx, id, cvOutFile)
	case "markdown":
		filename, err = a.CVs.DownloadMarkdown(ctx, id, cvOutFile)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Saved %s\n", filename)
	return nil
}
