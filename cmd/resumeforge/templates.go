package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available CV templates",
	RunE:  runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	templates, err := a.CVs.LoadTemplates(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Fprintln(os.Stdout, "No templates available")
		return nil
	}
	for _, tpl := range templates {
		fmt.Fprintf(os.Stdout, "%s  %s\n", tpl.ID, tpl.Name)
		if tpl.Description != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", tpl.Description)
		}
	}
	return nil
}
