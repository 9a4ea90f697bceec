package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "environment",
	Short: "Manage stored environments",
	Aliases: []string{
		"environments",
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <name> KEY=VALUE [KEY=VALUE...]",
	Short: "Create or update an environment",
	Long: `Create or update a stored environment. Existing variables not named
are kept.

Examples:
  reqbench environment set dev BASE_URL=http://localhost:3000
  reqbench environment set staging BASE_URL=https://staging.example.com TOKEN=abc`,
	Args: cobra.MinimumNArgs(2),
	RunE: envSetCommand,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored environments",
	Args:  cobra.NoArgs,
	RunE:  envListCommand,
}

var envShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an environment's variables",
	Args:  cobra.ExactArgs(1),
	RunE:  envShowCommand,
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored environment",
	Args:  cobra.ExactArgs(1),
	RunE:  envDeleteCommand,
}

func init() {
	envCmd.AddCommand(envSetCmd)
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envShowCmd)
	envCmd.AddCommand(envDeleteCmd)
}

func envSetCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	updates, err := parsePairs(args[1:])
	if err != nil {
		return err
	}

	variables, _, err := st.EnvironmentVariables(args[0])
	if err != nil {
		return err
	}
	if variables == nil {
		variables = make(map[string]string, len(updates))
	}
	for k, v := range updates {
		variables[k] = v
	}

	if err := st.SaveEnvironment(args[0], variables); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Environment %q saved (%d variables).\n", args[0], len(variables))
	return nil
}

func envListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	names, err := st.ListEnvironments()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored environments.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}

func envShowCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	variables, ok, err := st.EnvironmentVariables(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("environment %q not found", args[0])
	}

	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s=%s\n", k, variables[k])
	}
	return nil
}

func envDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteEnvironment(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("environment %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Environment %q deleted.\n", args[0])
	return nil
}
