package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/filter"
	"github.com/leapstack-labs/rideboard/internal/metrics"
)

// ChartsOptions holds options for the charts command.
type ChartsOptions struct {
	filterFlags
	TopK int
	Bins int
}

// NewChartsCommand creates the charts command.
func NewChartsCommand() *cobra.Command {
	opts := &ChartsOptions{}

	cmd := &cobra.Command{
		Use:       "charts <daily|revenue|vehicles|ratings>",
		Short:     "Print a chart aggregate for the (optionally filtered) dataset",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily", "revenue", "vehicles", "ratings"},
		Example: `  # Daily ride volume, dense over the full date span
  rideboard charts daily

  # Top 3 vehicle types by distance, as JSON
  rideboard charts vehicles --top 3 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCharts(cmd, args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVar(&opts.TopK, "top", metrics.DefaultTopK, "Number of vehicle types to keep")
	cmd.Flags().IntVar(&opts.Bins, "bins", metrics.DefaultBins, "Number of rating histogram buckets")

	return cmd
}

func runCharts(cmd *cobra.Command, chart string, opts *ChartsOptions) error {
	cc := NewCommandContext(cmd)
	if err := cc.Open(cmd.Context()); err != nil {
		return err
	}
	defer cc.Close()

	view, err := filter.Apply(cc.Dataset, opts.spec())
	if err != nil {
		return err
	}

	var cols []string
	var rows [][]string

	switch chart {
	case "daily":
		cols = []string{"date", "rides"}
		for _, d := range metrics.DailyVolume(view) {
			rows = append(rows, []string{d.Date.Format("2006-01-02"), strconv.Itoa(d.Rides)})
		}
	case "revenue":
		cols = []string{"payment_method", "revenue"}
		for _, m := range metrics.RevenueByPaymentMethod(view) {
			rows = append(rows, []string{m.Method, fmt.Sprintf("%.2f", m.Revenue)})
		}
	case "vehicles":
		cols = []string{"vehicle_type", "distance_km"}
		for _, v := range metrics.TopVehicleTypesByDistance(view, opts.TopK) {
			rows = append(rows, []string{v.VehicleType, fmt.Sprintf("%.2f", v.DistanceKM)})
		}
	case "ratings":
		cols = []string{"bucket", "count"}
		for _, b := range metrics.RatingHistogram(view, opts.Bins) {
			rows = append(rows, []string{
				fmt.Sprintf("%.2f - %.2f", b.Low, b.High),
				strconv.Itoa(b.Count),
			})
		}
	default:
		return fmt.Errorf("unknown chart %q (want daily, revenue, vehicles, or ratings)", chart)
	}

	return renderRows(cmd.OutOrStdout(), cols, rows, cc.Cfg.OutputFormat)
}
