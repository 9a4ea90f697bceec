package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/mock"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Manage mock endpoints and run the mock server",
}

var (
	mockAddMethodFlag   string
	mockAddStatusFlag   int
	mockAddResponseFlag string

	mockServePortFlag  int
	mockServeDelayFlag string
)

var mockAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a mock endpoint",
	Long: `Register a mock endpoint served by 'reqbench mock serve'.

The response may be inline JSON or any literal string.

Examples:
  reqbench mock add list-users /users --response '{"users": []}'
  reqbench mock add not-found /missing --status 404 --response '{"error": "nope"}'
  reqbench mock add create-user /users --method POST --status 201`,
	Args: cobra.ExactArgs(2),
	RunE: mockAddCommand,
}

var mockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered mock endpoints",
	Args:  cobra.NoArgs,
	RunE:  mockListCommand,
}

var mockDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a mock endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  mockDeleteCommand,
}

var mockServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registered mock endpoints",
	Long: `Serve all registered mock endpoints over HTTP until interrupted.

Examples:
  reqbench mock serve
  reqbench mock serve --port 3000 --delay 100ms`,
	Args: cobra.NoArgs,
	RunE: mockServeCommand,
}

func init() {
	mockAddCmd.Flags().StringVar(&mockAddMethodFlag, "method", "GET", "HTTP method to match")
	mockAddCmd.Flags().IntVar(&mockAddStatusFlag, "status", 200, "Response status code")
	mockAddCmd.Flags().StringVar(&mockAddResponseFlag, "response", "", "Response body (JSON or literal)")

	mockServeCmd.Flags().IntVarP(&mockServePortFlag, "port", "p", 8001, "Port to serve on")
	mockServeCmd.Flags().StringVarP(&mockServeDelayFlag, "delay", "d", "0", "Delay added to every response (e.g. 100ms)")

	mockCmd.AddCommand(mockAddCmd)
	mockCmd.AddCommand(mockListCmd)
	mockCmd.AddCommand(mockDeleteCmd)
	mockCmd.AddCommand(mockServeCmd)
}

func mockAddCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	e := mock.Endpoint{
		Name:       args[0],
		Method:     mockAddMethodFlag,
		Path:       args[1],
		StatusCode: mockAddStatusFlag,
	}
	if mockAddResponseFlag != "" {
		var parsed any
		if err := json.Unmarshal([]byte(mockAddResponseFlag), &parsed); err == nil {
			e.Response = parsed
		} else {
			e.Response = mockAddResponseFlag
		}
	}

	if err := st.SaveMockEndpoint(e); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mock endpoint %q saved (%s %s -> %d).\n", e.Name, e.Method, e.Path, e.StatusCode)
	return nil
}

func mockListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	endpoints, err := st.ListMockEndpoints()
	if err != nil {
		return err
	}
	if len(endpoints) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mock endpoints.")
		return nil
	}
	for _, e := range endpoints {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %-6s %s -> %d\n", e.Name, e.Method, e.Path, e.StatusCode)
	}
	return nil
}

func mockDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteMockEndpoint(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("mock endpoint %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mock endpoint %q deleted.\n", args[0])
	return nil
}

func mockServeCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	var delay time.Duration
	if mockServeDelayFlag != "0" {
		delay, err = time.ParseDuration(mockServeDelayFlag)
		if err != nil {
			return fmt.Errorf("invalid delay value %q: %w", mockServeDelayFlag, err)
		}
	}

	endpoints, err := st.ListMockEndpoints()
	if err != nil {
		return err
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("no mock endpoints registered (use 'reqbench mock add')")
	}

	registry := mock.NewRegistry()
	for _, e := range endpoints {
		registry.Add(e)
	}

	opts := []mock.Option{mock.WithPort(mockServePortFlag)}
	if delay > 0 {
		opts = append(opts, mock.WithDelay(delay))
	}
	server := mock.NewServer(registry, opts...)
	if err := server.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock server listening on %s (%d endpoints)\n", server.Addr(), len(endpoints))
	for _, e := range endpoints {
		fmt.Fprintf(out, "  %-6s %s -> %d\n", e.Method, e.Path, e.StatusCode)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Fprintln(os.Stderr, "\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
