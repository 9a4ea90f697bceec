package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/loadtest"
)

var (
	loadtestRequestsFlag    int
	loadtestConcurrencyFlag int
	loadtestRateFlag        float64
	loadtestVarFlags        []string
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest <request-name>",
	Short: "Run a load test against a saved request",
	Long: `Send a saved request many times concurrently and report latency
percentiles.

Examples:
  reqbench loadtest list-users -n 500 -c 20
  reqbench loadtest list-users -n 1000 -c 50 --rate 100
  reqbench loadtest login --env staging --var USER=ana`,
	Args: cobra.ExactArgs(1),
	RunE: loadtestCommand,
}

func init() {
	loadtestCmd.Flags().IntVarP(&loadtestRequestsFlag, "requests", "n", 100, "Total number of requests")
	loadtestCmd.Flags().IntVarP(&loadtestConcurrencyFlag, "concurrency", "c", 10, "Concurrent workers")
	loadtestCmd.Flags().Float64VarP(&loadtestRateFlag, "rate", "r", 0, "Target requests per second (0 = unlimited)")
	loadtestCmd.Flags().StringArrayVar(&loadtestVarFlags, "var", nil, "Variable override (KEY=VALUE, repeatable)")
}

func loadtestCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	def, ok, err := st.Request(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("request %q not found", args[0])
	}

	variables, err := resolveVariables(cfg, st, loadtestVarFlags)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Load testing %s %s (%d requests, %d workers)...\n\n",
		def.Method, def.URL, loadtestRequestsFlag, loadtestConcurrencyFlag)

	runner := loadtest.NewRunner(newHTTPClient(cfg))
	result, err := runner.Run(cmd.Context(), def, variables, loadtest.Config{
		Requests:    loadtestRequestsFlag,
		Concurrency: loadtestConcurrencyFlag,
		Rate:        loadtestRateFlag,
	})
	if err != nil {
		return err
	}

	newFormatter(cfg).FormatLoadTestResult(result)

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
	return nil
}
