package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(root *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print burn rate and runway for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			snapshot, err := app.Service.GetFinancialSnapshot(ctx, user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshot)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	return cmd
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	var (
		user   string
		hires  int
		salary float64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project runway after adding hires",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			sim, err := app.Service.SimulateHiring(ctx, user, hires, salary)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sim)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().IntVar(&hires, "hires", 1, "number of new hires")
	cmd.Flags().Float64Var(&salary, "salary", 0, "average monthly salary per hire")
	return cmd
}

func newForecastCmd(root *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast daily expenses for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			points, err := app.Service.Forecast(ctx, user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), points)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	return cmd
}

func newCashCmd(root *rootOptions) *cobra.Command {
	var (
		user   string
		amount float64
	)
	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Set a user's cash on hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			if !cmd.Flags().Changed("amount") {
				return fmt.Errorf("--amount is required")
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Service.SetCashOnHand(ctx, user, amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cash on hand for %s set to %.2f\n", user, amount)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().Float64Var(&amount, "amount", 0, "cash on hand")
	return cmd
}

func newActivityCmd(root *rootOptions) *cobra.Command {
	var (
		user  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print a user's audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUserFlag(user); err != nil {
				return err
			}
			ctx, app, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Service.ListActivity(ctx, user, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	return cmd
}
