package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme [name]",
	Short: "Show or set the CV theme",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTheme,
}

var darkModeCmd = &cobra.Command{
	Use:   "dark-mode",
	Short: "Toggle dark mode",
	RunE:  runDarkMode,
}

func init() {
	rootCmd.AddCommand(themeCmd, darkModeCmd)
}

func runTheme(cmd *cobra.Command, args []string) error {
	a, _, err := newApp()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintln(os.Stdout, a.Prefs.Theme.Get())
		return nil
	}

	before := a.Prefs.Theme.Get()
	if err := a.Prefs.SetTheme(args[0]); err != nil {
		return err
	}
	if a.Prefs.Theme.Get() == before && args[0] != before {
		return fmt.Errorf("unknown theme %q", args[0])
	}
	fmt.Fprintf(os.Stdout, "Theme set to %s\n", args[0])
	return nil
}

func runDarkMode(cmd *cobra.Command, args []string) error {
	a, _, err := newApp()
	if err != nil {
		return err
	}
	dark, err := a.Prefs.ToggleDarkMode()
	if err != nil {
		return err
	}
	if dark {
		fmt.Fprintln(os.Stdout, "Dark mode on")
	} else {
		fmt.Fprintln(os.Stdout, "Dark mode off")
	}
	return nil
}
