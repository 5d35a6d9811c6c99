package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
	"github.com/Veraticus/the-spice-must-talk/internal/cli"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Inspect recorded expenses",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a month's expenses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, _ := cmd.Flags().GetString("month")

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if month == "" {
				month = a.ledger.ActiveMonth()
			} else if _, err := analytics.ParseMonthKey(month); err != nil {
				return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
			}

			expenses, err := a.ledger.Expenses(cmd.Context(), month)
			if err != nil {
				return fmt.Errorf("failed to load expenses: %w", err)
			}
			return cli.RenderExpenses(cmd.OutOrStdout(), month, expenses)
		},
	}
	list.Flags().String("month", "", "month to list as YYYY-MM (default: current month)")

	months := &cobra.Command{
		Use:   "months",
		Short: "List every month with expenses and its total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			keys, err := a.ledger.Months(ctx)
			if err != nil {
				return fmt.Errorf("failed to list months: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				_, err := fmt.Fprintln(out, cli.FormatInfo("No expenses recorded yet."))
				return err
			}
			for _, key := range keys {
				expenses, err := a.ledger.Expenses(ctx, key)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", key, err)
				}
				_, _ = fmt.Fprintf(out, "%-16s %10s  %s\n", analytics.MonthLabel(key),
					analytics.FormatMoney(analytics.Total(expenses)),
					cli.SubtleStyle.Render(fmt.Sprintf("%d expenses", len(expenses))))
			}
			return nil
		},
	}

	cmd.AddCommand(list, months)
	return cmd
}
