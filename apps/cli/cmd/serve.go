package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/api"
)

var (
	servePortFlag      int
	serveNoMetricsFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workbench over a local REST API",
	Long: `Serve the workbench over a local REST API for UI frontends and
scripting.

Examples:
  reqbench serve
  reqbench serve --port 9000
  reqbench serve --no-metrics`,
	Args: cobra.NoArgs,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().IntVarP(&servePortFlag, "port", "p", 8000, "Port to serve on")
	serveCmd.Flags().BoolVar(&serveNoMetricsFlag, "no-metrics", false, "Disable metrics recording")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	opts := []api.Option{api.WithClient(newHTTPClient(cfg))}
	if !serveNoMetricsFlag {
		if rec := openRecorder(cfg); rec != nil {
			defer rec.Close()
			opts = append(opts, api.WithRecorder(rec))
		}
	}

	server := api.NewServer(st, opts...)
	defer server.Close()

	httpServer := server.HTTPServer(fmt.Sprintf(":%d", servePortFlag))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "reqbench API listening on http://localhost:%d\n", servePortFlag)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
