package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/output"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Inspect recorded request metrics",
}

var (
	metricsListLimitFlag int
	metricsStatsNameFlag string
)

var metricsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded samples, newest first",
	Args:  cobra.NoArgs,
	RunE:  metricsListCommand,
}

var metricsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate latency statistics",
	Long: `Show aggregate latency statistics over the recorded samples.

Examples:
  reqbench metrics stats
  reqbench metrics stats --request list-users`,
	Args: cobra.NoArgs,
	RunE: metricsStatsCommand,
}

var metricsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded samples",
	Args:  cobra.NoArgs,
	RunE:  metricsClearCommand,
}

func init() {
	metricsListCmd.Flags().IntVarP(&metricsListLimitFlag, "limit", "l", 0, "Maximum samples to show (default 100)")
	metricsStatsCmd.Flags().StringVar(&metricsStatsNameFlag, "request", "", "Restrict stats to one request name")

	metricsCmd.AddCommand(metricsListCmd)
	metricsCmd.AddCommand(metricsStatsCmd)
	metricsCmd.AddCommand(metricsClearCmd)
}

func metricsListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if _, err := openStore(cfg); err != nil {
		return err
	}

	rec, err := metrics.Open(metricsPath(cfg))
	if err != nil {
		return err
	}
	defer rec.Close()

	samples, err := rec.List(cmd.Context(), metricsListLimitFlag)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded samples.")
		return nil
	}
	output.SampleTable(cmd.OutOrStdout(), samples)
	return nil
}

func metricsStatsCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if _, err := openStore(cfg); err != nil {
		return err
	}

	rec, err := metrics.Open(metricsPath(cfg))
	if err != nil {
		return err
	}
	defer rec.Close()

	stats, err := rec.Stats(cmd.Context(), metrics.Filter{RequestName: metricsStatsNameFlag})
	if err != nil {
		return err
	}
	newFormatter(cfg).FormatStats(stats)
	return nil
}

func metricsClearCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if _, err := openStore(cfg); err != nil {
		return err
	}

	rec, err := metrics.Open(metricsPath(cfg))
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Metrics cleared.")
	return nil
}
