// Package main provides the ResumeForge command line client.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "ResumeForge command line client",
	Long:  "ResumeForge manages your CVs, AI-assisted editing, ATS scoring, and subscription from the terminal.",
}

var (
	flagAPIBase string
	flagConfig  string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api-base", "", "Backend base URL (overrides config and RESUMEFORGE_API_BASE)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
