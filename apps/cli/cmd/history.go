package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent request and chain executions",
	Args:  cobra.NoArgs,
	RunE:  historyCommand,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the execution history",
	Args:  cobra.NoArgs,
	RunE:  historyClearCommand,
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	entries, err := st.History()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history.")
		return nil
	}
	output.HistoryTable(cmd.OutOrStdout(), entries)
	return nil
}

func historyClearCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := st.ClearHistory(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
