package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/output"
	"github.com/abdul-hamid-achik/reqbench/packages/store"
)

// watchDebounceDelay is the debounce delay for file watch events.
const watchDebounceDelay = 300 * time.Millisecond

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Manage and run request chains",
}

var (
	chainSaveRequestFlags []string
	chainSaveExtractFlags []string
	chainSaveVarFlags     []string
	chainSaveFileFlag     string

	chainRunVarFlags []string
	chainRunWatch    bool
)

var chainSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a chain of requests",
	Long: `Save a named chain over previously saved requests.

Extraction rules have the form STEP:PATH:VARIABLE, where STEP is the
0-based index of the step whose response feeds the variable.

Examples:
  reqbench chain save auth-flow -r login -r profile --extract 0:token:TOKEN
  reqbench chain save crud -r create -r get -r delete --extract 0:id:ID --var BASE_URL=http://localhost:3000
  reqbench chain save smoke --file smoke-chain.json`,
	Args: cobra.ExactArgs(1),
	RunE: chainSaveCommand,
}

var chainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved chains",
	Args:  cobra.NoArgs,
	RunE:  chainListCommand,
}

var chainShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved chain",
	Args:  cobra.ExactArgs(1),
	RunE:  chainShowCommand,
}

var chainDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved chain",
	Args:  cobra.ExactArgs(1),
	RunE:  chainDeleteCommand,
}

var chainRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a saved chain",
	Long: `Run a saved chain, threading extracted variables between steps.

Examples:
  reqbench chain run auth-flow
  reqbench chain run auth-flow --env staging --var USER=ana
  reqbench chain run auth-flow --watch`,
	Args: cobra.ExactArgs(1),
	RunE: chainRunCommand,
}

func init() {
	chainSaveCmd.Flags().StringArrayVarP(&chainSaveRequestFlags, "request", "r", nil, "Saved request name, in order (repeatable)")
	chainSaveCmd.Flags().StringArrayVar(&chainSaveExtractFlags, "extract", nil, "Extraction rule (STEP:PATH:VARIABLE, repeatable)")
	chainSaveCmd.Flags().StringArrayVar(&chainSaveVarFlags, "var", nil, "Seed variable (KEY=VALUE, repeatable)")
	chainSaveCmd.Flags().StringVar(&chainSaveFileFlag, "file", "", "Load the chain definition from a JSON file")

	chainRunCmd.Flags().StringArrayVar(&chainRunVarFlags, "var", nil, "Variable override (KEY=VALUE, repeatable)")
	chainRunCmd.Flags().BoolVarP(&chainRunWatch, "watch", "w", false, "Watch the workbench store and re-run on changes")

	chainCmd.AddCommand(chainSaveCmd)
	chainCmd.AddCommand(chainListCmd)
	chainCmd.AddCommand(chainShowCmd)
	chainCmd.AddCommand(chainDeleteCmd)
	chainCmd.AddCommand(chainRunCmd)
}

func parseExtractionRules(raw []string) ([]chain.ExtractionRule, error) {
	var rules []chain.ExtractionRule
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid extraction rule %q (want STEP:PATH:VARIABLE)", r)
		}
		step, err := strconv.Atoi(parts[0])
		if err != nil || step < 0 {
			return nil, fmt.Errorf("invalid step index in extraction rule %q", r)
		}
		rules = append(rules, chain.ExtractionRule{
			FromStep: step,
			Path:     parts[1],
			Variable: parts[2],
		})
	}
	return rules, nil
}

func chainSaveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	var c store.Chain
	if chainSaveFileFlag != "" {
		data, err := os.ReadFile(chainSaveFileFlag)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("invalid chain file: %w", err)
		}
	} else {
		if len(chainSaveRequestFlags) == 0 {
			return fmt.Errorf("at least one --request is required")
		}
		rules, err := parseExtractionRules(chainSaveExtractFlags)
		if err != nil {
			return err
		}
		seed, err := parsePairs(chainSaveVarFlags)
		if err != nil {
			return err
		}
		c = store.Chain{
			Requests:  chainSaveRequestFlags,
			Rules:     rules,
			Variables: seed,
		}
	}
	c.Name = args[0]

	// Reject references to unsaved requests up front.
	if _, err := st.Steps(c); err != nil {
		return err
	}

	if err := st.SaveChain(c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Chain %q saved (%d steps).\n", c.Name, len(c.Requests))
	return nil
}

func chainListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	chains, err := st.ListChains()
	if err != nil {
		return err
	}
	if len(chains) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved chains.")
		return nil
	}
	output.ChainTable(cmd.OutOrStdout(), chains)
	return nil
}

func chainShowCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	c, ok, err := st.Chain(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chain %q not found", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", c.Name)
	for i, name := range c.Requests {
		fmt.Fprintf(out, "  %d. %s\n", i+1, name)
	}
	for _, r := range c.Rules {
		fmt.Fprintf(out, "  step %d: %s -> {{%s}}\n", r.FromStep, r.Path, r.Variable)
	}
	for k, v := range c.Variables {
		fmt.Fprintf(out, "  %s=%s\n", k, v)
	}
	return nil
}

func chainDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteChain(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("chain %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Chain %q deleted.\n", args[0])
	return nil
}

func chainRunCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	runOnce := func() (*chain.Report, error) {
		c, ok, err := st.Chain(args[0])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("chain %q not found", args[0])
		}

		variables, err := resolveVariables(cfg, st, chainRunVarFlags)
		if err != nil {
			return nil, err
		}
		seed := make(map[string]string, len(c.Variables)+len(variables))
		for k, v := range c.Variables {
			seed[k] = v
		}
		for k, v := range variables {
			seed[k] = v
		}

		steps, err := st.Steps(c)
		if err != nil {
			return nil, err
		}

		executor := chain.NewExecutor(newHTTPClient(cfg), chain.WithStepTimeout(cfg.GetTimeout()))
		report := executor.Execute(cmd.Context(), c.Name, steps, c.Rules, seed)

		_ = st.AppendHistory(store.HistoryEntry{
			Kind:            "chain",
			Name:            c.Name,
			DurationSeconds: report.TotalTimeSeconds,
			Success:         report.Success,
			ExecutedAt:      time.Now(),
		})

		newFormatter(cfg).FormatChainReport(report)
		return report, nil
	}

	report, err := runOnce()
	if err != nil {
		return err
	}

	if !chainRunWatch {
		if !report.Success || !report.AssertionsPassed() {
			os.Exit(1)
		}
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(st.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", st.Dir(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// History writes would otherwise re-trigger every run.
			if !isStoreDefinitionFile(event.Name) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nStore changed: %s\nRe-running chain...\n\n", event.Name)
				if _, err := runOnce(); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func isStoreDefinitionFile(path string) bool {
	switch {
	case strings.HasSuffix(path, store.RequestsFile),
		strings.HasSuffix(path, store.ChainsFile),
		strings.HasSuffix(path, store.EnvironmentsFile):
		return true
	}
	return false
}
