package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rideboard/internal/dataset"
	"github.com/leapstack-labs/rideboard/internal/filter"
	"github.com/leapstack-labs/rideboard/internal/metrics"
)

// filterFlags are the categorical filter options shared by the kpi and
// charts commands.
type filterFlags struct {
	VehicleTypes   []string
	PaymentMethods []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.VehicleTypes, "vehicle-type", nil, "Retain only these vehicle types")
	cmd.Flags().StringSliceVar(&f.PaymentMethods, "payment-method", nil, "Retain only these payment methods")
}

func (f *filterFlags) spec() filter.Spec {
	return filter.Spec{
		dataset.ColVehicleType:   f.VehicleTypes,
		dataset.ColPaymentMethod: f.PaymentMethods,
	}
}

// NewKPICommand creates the kpi command.
func NewKPICommand() *cobra.Command {
	flags := &filterFlags{}

	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Show KPIs for the (optionally filtered) dataset",
		Example: `  # All rides
  rideboard kpi

  # Only card-paid SUV rides
  rideboard kpi --vehicle-type SUV --payment-method Card`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKPI(cmd, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runKPI(cmd *cobra.Command, flags *filterFlags) error {
	cc := NewCommandContext(cmd)
	if err := cc.Open(cmd.Context()); err != nil {
		return err
	}
	defer cc.Close()

	view, err := filter.Apply(cc.Dataset, flags.spec())
	if err != nil {
		return err
	}

	k := metrics.ComputeKPIs(view)
	rate := "0%"
	if k.RateDefined {
		rate = fmt.Sprintf("%.1f%%", k.CancellationRate*100)
	}

	cols := []string{"total_rides", "completed_rides", "total_revenue", "cancellation_rate"}
	rows := [][]string{{
		strconv.Itoa(k.TotalRides),
		strconv.Itoa(k.CompletedRides),
		fmt.Sprintf("%.2f", k.TotalRevenue),
		rate,
	}}
	return renderRows(cmd.OutOrStdout(), cols, rows, cc.Cfg.OutputFormat)
}
