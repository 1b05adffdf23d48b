package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmaint/openmaint/pkg/analytics"
	"github.com/openmaint/openmaint/pkg/stores"
	"github.com/openmaint/openmaint/pkg/workorder"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run maintenance analytics reports",
	}

	cmd.AddCommand(newReportOverviewCommand())
	cmd.AddCommand(newReportComplianceCommand())
	cmd.AddCommand(newReportRecurringCommand())
	cmd.AddCommand(newReportStopsCommand())
	cmd.AddCommand(newReportPunctualityCommand())
	cmd.AddCommand(newReportCalendarCommand())

	return cmd
}

// reportData loads the orders every report starts from.
func reportData(ctx context.Context, store *stores.SQLiteStore) ([]workorder.WorkOrder, error) {
	ptrs, err := store.ListOrders(ctx, stores.OrderFilter{})
	if err != nil {
		return nil, err
	}
	orders := make([]workorder.WorkOrder, len(ptrs))
	for i, o := range ptrs {
		orders[i] = *o
	}
	return orders, nil
}

// parseWindow resolves the --from/--to flags into a time window ending
// now when --to is unset and starting days back when --from is unset.
func parseWindow(from, to string, days int) (time.Time, time.Time, error) {
	end := time.Now()
	if to != "" {
		t, err := workorder.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		end = t
	}

	start := end.AddDate(0, 0, -days)
	if from != "" {
		t, err := workorder.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
		start = t
	}

	return start, end, nil
}

func newReportOverviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Dashboard overview of machines and orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			orders, err := reportData(ctx, store)
			if err != nil {
				return err
			}
			machines, err := store.ListMachines(ctx)
			if err != nil {
				return err
			}

			return printJSON(struct {
				Overview analytics.OverviewReport   `json:"overview"`
				Monthly  []analytics.MonthTypeCount `json:"monthly_types"`
				Causes   []analytics.CauseCount     `json:"failure_causes"`
			}{
				Overview: analytics.Overview(machines, orders),
				Monthly:  analytics.MonthlyTypeBreakdown(orders),
				Causes:   analytics.FailureCauses(orders),
			})
		},
	}

	return cmd
}

func newReportComplianceCommand() *cobra.Command {
	var (
		from    string
		to      string
		days    int
		groupBy string
	)

	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Preventive maintenance compliance",
		Long: `Classify preventive orders in the window as completed on time,
completed late, or pending late, and report compliance rates overall,
per group, and as a 12-month trend.`,
		Example: `  # Last 90 days, grouped by machine
  omaint report compliance --days 90 --group-by machine

  # Fixed window grouped by assignee
  omaint report compliance --from 2024-01-01 --to 2024-04-01 --group-by assignee`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			orders, err := reportData(ctx, store)
			if err != nil {
				return err
			}

			start, end, err := parseWindow(from, to, days)
			if err != nil {
				return err
			}

			report := analytics.EvaluateCompliance(orders, start, end, analytics.GroupBy(groupBy), time.Now())
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 90, "window length in days when --from is unset")
	cmd.Flags().StringVar(&groupBy, "group-by", "machine", "grouping key (machine, month, assignee)")

	return cmd
}

func newReportRecurringCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring corrective failures per machine",
		Long: `Group corrective orders by machine and normalized issue text and
report issues seen at least twice, ranked by occurrence count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			orders, err := reportData(ctx, store)
			if err != nil {
				return err
			}
			directory, err := store.MachineDirectory(ctx)
			if err != nil {
				return err
			}

			return printJSON(analytics.DetectRecurringFailures(orders, directory))
		},
	}

	return cmd
}

func newReportStopsCommand() *cobra.Command {
	var (
		from string
		to   string
		days int
	)

	cmd := &cobra.Command{
		Use:   "stops",
		Short: "Machine stop analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			start, end, err := parseWindow(from, to, days)
			if err != nil {
				return err
			}

			stops, err := store.ListStops(ctx, start, end)
			if err != nil {
				return err
			}

			return printJSON(analytics.AnalyzeStops(stops))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 30, "window length in days when --from is unset")

	return cmd
}

func newReportPunctualityCommand() *cobra.Command {
	var (
		from    string
		to      string
		days    int
		groupBy string
	)

	cmd := &cobra.Command{
		Use:   "punctuality",
		Short: "Production line start punctuality",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			start, end, err := parseWindow(from, to, days)
			if err != nil {
				return err
			}

			records, err := store.ListLineStarts(ctx, start, end)
			if err != nil {
				return err
			}

			report := analytics.EvaluateStartPunctuality(records, analytics.PunctualityOptions{
				GroupBy: analytics.StartGroupBy(groupBy),
				Window:  end.Sub(start),
				Now:     end,
			})
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 30, "window length in days when --from is unset")
	cmd.Flags().StringVar(&groupBy, "group-by", "line", "grouping key (line, department, machine, day)")

	return cmd
}

func newReportCalendarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Scheduled orders as calendar events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			orders, err := reportData(ctx, store)
			if err != nil {
				return err
			}
			directory, err := store.MachineDirectory(ctx)
			if err != nil {
				return err
			}

			return printJSON(analytics.CalendarEvents(orders, directory))
		},
	}

	return cmd
}
