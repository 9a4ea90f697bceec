package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/config"
	"github.com/abdul-hamid-achik/reqbench/packages/http"
	"github.com/abdul-hamid-achik/reqbench/packages/metrics"
	"github.com/abdul-hamid-achik/reqbench/packages/output"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	envFlag     string
	noColorFlag bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "reqbench",
	Short: "A personal workbench for exploring HTTP APIs",
	Long: `reqbench is a personal API-testing workbench. Save requests, chain them
together with variable extraction and assertions, run load tests, serve
mock endpoints, and query GraphQL APIs while you build against a service.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("REQBENCH_CONFIG", ""), "Path to config file (env: REQBENCH_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", getEnvString("REQBENCH_ENV", ""), "Environment to resolve variables from (env: REQBENCH_ENV)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("REQBENCH_NO_COLOR", false), "Disable colored output (env: REQBENCH_NO_COLOR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(graphqlCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(loadtestCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.New(cfg.GetStorageDir())
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return http.NewClient(
		http.WithTimeout(cfg.GetTimeout()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithDefaultHeaders(cfg.Headers),
	)
}

func newFormatter(cfg *config.Config) *output.ConsoleFormatter {
	return output.NewConsoleFormatter(
		output.WithVerbose(verboseFlag),
		output.WithNoColor(noColorFlag || cfg.GetNoColor()),
	)
}

func metricsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GetStorageDir(), "metrics.db")
}

// openRecorder returns nil when the metrics database cannot be opened;
// recording is best effort and never blocks a request.
func openRecorder(cfg *config.Config) *metrics.Recorder {
	rec, err := metrics.Open(metricsPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: metrics disabled: %v\n", err)
		return nil
	}
	return rec
}

// resolveVariables merges config-file environment variables, stored
// environment variables, and inline KEY=VALUE overrides, in that order.
func resolveVariables(cfg *config.Config, st *store.Store, inline []string) (map[string]string, error) {
	variables := make(map[string]string)

	envName := envFlag
	if envName == "" {
		envName = cfg.DefaultEnvironment
	}
	if envName != "" {
		found := false
		if fromConfig, ok := cfg.EnvironmentVariables(envName); ok {
			for k, v := range fromConfig {
				variables[k] = v
			}
			found = true
		}
		stored, ok, err := st.EnvironmentVariables(envName)
		if err != nil {
			return nil, err
		}
		if ok {
			for k, v := range stored {
				variables[k] = v
			}
			found = true
		}
		if !found && envFlag != "" {
			return nil, fmt.Errorf("environment %q not found", envName)
		}
	}

	for _, pair := range inline {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q (want KEY=VALUE)", pair)
		}
		variables[k] = v
	}
	return variables, nil
}

// parseHeaders parses repeated "Key: Value" flags.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q (want \"Key: Value\")", h)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

// parsePairs parses repeated KEY=VALUE flags.
func parsePairs(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pairs := make(map[string]string, len(raw))
	for _, p := range raw {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (want KEY=VALUE)", p)
		}
		pairs[k] = v
	}
	return pairs, nil
}
