package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to ResumeForge",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a ResumeForge account",
	RunE:  runRegister,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify your email with the 6-digit code",
	RunE:  runVerify,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

var (
	authEmail    string
	authPassword string
	verifyCode   string
)

func init() {
	loginCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&authPassword, "password", "p", "", "Account password (prompted if omitted)")

	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
	registerCmd.Flags().StringVarP(&authPassword, "password", "p", "", "Account password (prompted if omitted)")

	verifyCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "6-digit verification code")
	verifyCmd.MarkFlagRequired("code")

	rootCmd.AddCommand(loginCmd, registerCmd, verifyCmd, logoutCmd, whoamiCmd)
}

// resolveCredentials fills email and password from flags, config, and
// prompts, in that order.
func resolveCredentials(cfgEmail string) (string, string, error) {
	email := authEmail
	if email == "" {
		email = cfgEmail
	}
	if email == "" {
		var err error
		email, err = prompt("Email")
		if err != nil {
			return "", "", err
		}
	}
	password := authPassword
	if password == "" {
		var err error
		password, err = prompt("Password")
		if err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	email, password, err := resolveCredentials(cfg.Email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	result, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if result.VerificationRequired {
		fmt.Fprintln(os.Stdout, "Your email is not verified yet. Check your inbox, then run:")
		fmt.Fprintf(os.Stdout, "  resumeforge verify --email %s --code <code>\n", email)
		return nil
	}

	user := a.Session.User.Get()
	fmt.Fprintf(os.Stdout, "Logged in as %s\n", user.Email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	email, password, err := resolveCredentials(cfg.Email)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	result, err := a.Session.Register(ctx, email, password)
	if err != nil {
		return err
	}
	if result.VerificationRequired {
		fmt.Fprintln(os.Stdout, "Account created. Check your inbox for the verification code, then run:")
		fmt.Fprintf(os.Stdout, "  resumeforge verify --email %s --code <code>\n", email)
		return nil
	}
	fmt.Fprintln(os.Stdout, "Account created and logged in")
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	email := authEmail
	if email == "" {
		email = cfg.Email
	}
	if email == "" {
		email, err = prompt("Email")
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if err := a.Session.VerifyEmail(ctx, email, verifyCode); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Email verified. You can now log in.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, _, err := newApp()
	if err != nil {
		return err
	}
	a.Session.Logout()
	fmt.Fprintln(os.Stdout, "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	if !a.Authenticated() {
		return fmt.Errorf("not logged in; run 'resumeforge login'")
	}

	user := a.Session.User.Get()
	if user == nil {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()
		if err := a.Session.RefreshUserData(ctx); err != nil {
			return err
		}
		user = a.Session.User.Get()
	}
	if user == nil {
		return fmt.Errorf("no user profile available")
	}

	fmt.Fprintf(os.Stdout, "Email:    %s\n", user.Email)
	fmt.Fprintf(os.Stdout, "ID:       %s\n", user.ID)
	fmt.Fprintf(os.Stdout, "Verified: %t\n", user.IsVerified)
	return nil
}
