package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a reqbench project",
	Long: `Create a reqbench.yaml configuration file in the current directory.

Examples:
  reqbench init
  reqbench init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing config file")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, "reqbench.yaml")
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	configContent := map[string]any{
		"defaultEnvironment": "dev",
		"timeout":            30000,
		"followRedirects":    true,
		"maxRedirects":       10,
		"headers": map[string]string{
			"User-Agent": "reqbench/1.0",
		},
		"environments": map[string]map[string]string{
			"dev": {
				"BASE_URL": "http://localhost:3000",
			},
			"staging": {
				"BASE_URL": "https://staging.api.example.com",
			},
			"prod": {
				"BASE_URL": "https://api.example.com",
			},
		},
	}

	configYAML, _ := yaml.Marshal(configContent)
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	fmt.Fprintln(cmd.OutOrStdout(), "\nreqbench project initialized!")
	fmt.Fprintln(cmd.OutOrStdout(), "Try: reqbench send GET '{{BASE_URL}}/health' --env dev")
	return nil
}
