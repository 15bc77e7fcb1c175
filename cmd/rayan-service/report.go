package main

import (
	"context"
	"strconv"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/workshop"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print reports",
	}

	var period, date string
	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "Print account totals for a day or a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(contextOf(cmd), func(ctx context.Context, service *workshop.Service) error {
				resolved, err := service.ResolvePeriod(period, date)
				if err != nil {
					return err
				}
				totals, err := service.Accounts(ctx, resolved)
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetAutoWrapText(false)
				table.SetHeader([]string{"Period", "From", "To", "Requests", "Repair", "Net Rkha", "Net External", "Total", "Remaining"})
				table.Append([]string{
					totals.Period,
					totals.From.Format("2006-01-02"),
					totals.To.Format("2006-01-02"),
					strconv.Itoa(totals.Count),
					totals.Repair.String(),
					totals.NetPurchasesRkha.String(),
					totals.NetPurchasesExternal.String(),
					totals.Total.String(),
					totals.Remaining.String(),
				})
				table.Render()
				return nil
			})
		},
	}
	accounts.Flags().StringVar(&period, "period", workshop.PeriodDay, "day or week")
	accounts.Flags().StringVar(&date, "date", "", "YYYY-MM-DD; a week starts on this day (defaults to today, or the last Sunday for weeks)")

	cmd.AddCommand(accounts)
	return cmd
}

func newSparesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spares",
		Short: "Inspect the spare-part inventory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "low-stock",
		Short: "List spares at or under the low-stock threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(contextOf(cmd), func(ctx context.Context, service *workshop.Service) error {
				spares, err := service.LowStock(ctx)
				if err != nil {
					return err
				}
				writeSpareTable(cmd, spares)
				return nil
			})
		},
	})
	return cmd
}

func writeSpareTable(cmd *cobra.Command, spares []models.SparePart) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"ID", "Name", "Category", "Price", "Quantity"})
	for _, spare := range spares {
		table.Append([]string{spare.ID, spare.Name, spare.Category, spare.Price.String(), strconv.Itoa(spare.Quantity)})
	}
	table.Render()
}
