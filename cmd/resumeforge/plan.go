package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/resumeforge/resumeforge-go/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show your subscription and the available plans",
	RunE:  runPlan,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's quota usage",
	RunE:  runUsage,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <plan-id>",
	Short: "Start a checkout for a paid plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpgrade,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel your subscription",
	RunE:  runCancel,
}

var upgradeCycle string

func init() {
	upgradeCmd.Flags().StringVar(&upgradeCycle, "cycle", "monthly", "Billing cycle: monthly or yearly")
	planCmd.AddCommand(upgradeCmd, cancelCmd)
	rootCmd.AddCommand(planCmd, usageCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	sub, err := a.Subscription.LoadCurrent(ctx)
	if err != nil {
		return err
	}
	printer().PrintSubscription(sub)

	plans, err := a.Subscription.LoadPlans(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "\nAvailable plans:")
	for _, plan := range plans {
		name := plan.DisplayName
		if name == "" {
			name = plan.Name
		}
		fmt.Fprintf(os.Stdout, "  %-10s $%.2f/mo  %d AI requests/day, %d CVs\n",
			name, plan.PriceMonthly, plan.APICallLimit, plan.CVLimit)
		if plan.ID != uuid.Nil {
			fmt.Fprintf(os.Stdout, "             id: %s\n", plan.ID)
		}
	}
	return nil
}

func runUsage(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	usage, err := a.Subscription.LoadUsage(ctx)
	if err != nil {
		return err
	}
	printer().PrintUsage(usage)
	return nil
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	planID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid plan id %q: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	url, err := a.Subscription.CreateCheckoutSession(ctx, types.CheckoutRequest{
		PlanID:       planID,
		BillingCycle: upgradeCycle,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Complete your upgrade here:")
	fmt.Fprintln(os.Stdout, url)
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	confirm, err := prompt("Cancel your subscription? Type 'yes' to confirm")
	if err != nil {
		return err
	}
	if confirm != "yes" {
		fmt.Fprintln(os.Stdout, "Aborted")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if err := a.Subscription.Cancel(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Subscription canceled")
	return nil
}
