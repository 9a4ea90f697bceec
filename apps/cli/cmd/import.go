package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import requests from other tools",
}

var importDryRunFlag bool

var importPostmanCmd = &cobra.Command{
	Use:   "postman <file>",
	Short: "Import a Postman collection",
	Long: `Import the requests of a Postman v2 collection export into the
workbench store. Postman {{variables}} are kept as-is and resolve
against environments at execution time.

Examples:
  reqbench import postman collection.json
  reqbench import postman collection.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: importPostmanCommand,
}

var importOpenAPICmd = &cobra.Command{
	Use:   "openapi <file>",
	Short: "Import an OpenAPI specification",
	Long: `Import the operations of an OpenAPI 3 document as saved requests.
Path parameters become {{variables}}.

Examples:
  reqbench import openapi api.yaml
  reqbench import openapi api.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: importOpenAPICommand,
}

func init() {
	importCmd.PersistentFlags().BoolVar(&importDryRunFlag, "dry-run", false, "Show what would be imported without saving")

	importCmd.AddCommand(importPostmanCmd)
	importCmd.AddCommand(importOpenAPICmd)
}

func importPostmanCommand(cmd *cobra.Command, args []string) error {
	requests, err := importer.ParsePostmanFile(args[0])
	if err != nil {
		return err
	}
	return saveImported(cmd, requests)
}

func importOpenAPICommand(cmd *cobra.Command, args []string) error {
	requests, err := importer.ParseOpenAPIFile(args[0])
	if err != nil {
		return err
	}
	return saveImported(cmd, requests)
}

func saveImported(cmd *cobra.Command, requests []importer.ImportedRequest) error {
	if len(requests) == 0 {
		return fmt.Errorf("no requests found")
	}

	out := cmd.OutOrStdout()
	for _, r := range requests {
		if r.Folder != "" {
			fmt.Fprintf(out, "  %-6s %-30s %s (%s)\n", r.Method, r.Name, r.URL, r.Folder)
		} else {
			fmt.Fprintf(out, "  %-6s %-30s %s\n", r.Method, r.Name, r.URL)
		}
	}

	if importDryRunFlag {
		fmt.Fprintf(out, "\nWould import %d requests.\n", len(requests))
		return nil
	}

	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	for _, r := range requests {
		if err := st.SaveRequest(r.RequestDefinition); err != nil {
			return fmt.Errorf("failed to save %q: %w", r.Name, err)
		}
	}
	fmt.Fprintf(out, "\nImported %d requests.\n", len(requests))
	return nil
}
