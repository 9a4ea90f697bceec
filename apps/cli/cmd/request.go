package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqbench/packages/chain"
	"github.com/abdul-hamid-achik/reqbench/packages/importer"
	"github.com/abdul-hamid-achik/reqbench/packages/output"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Manage saved requests",
}

var (
	requestSaveHeaderFlags []string
	requestSaveDataFlag    string
	requestSaveParamFlags  []string

	requestExecVarFlags []string
	requestExecAuthFlag string

	requestExportFormatFlag string
	requestExportOutFlag    string
)

var requestSaveCmd = &cobra.Command{
	Use:   "save <name> <method> <url>",
	Short: "Save a request for later execution",
	Long: `Save a named request definition.

Examples:
  reqbench request save list-users GET https://api.example.com/users
  reqbench request save login POST '{{BASE_URL}}/login' -d '{"user": "{{USER}}"}'`,
	Args: cobra.ExactArgs(3),
	RunE: requestSaveCommand,
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved requests",
	Args:  cobra.NoArgs,
	RunE:  requestListCommand,
}

var requestShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved request",
	Args:  cobra.ExactArgs(1),
	RunE:  requestShowCommand,
}

var requestDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved request",
	Args:  cobra.ExactArgs(1),
	RunE:  requestDeleteCommand,
}

var requestExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all saved requests",
	Long: `Export every saved request as plain JSON or a Postman v2.1 collection.

Examples:
  reqbench request export > requests.json
  reqbench request export --format postman -o collection.json`,
	Args: cobra.NoArgs,
	RunE: requestExportCommand,
}

var requestExecCmd = &cobra.Command{
	Use:   "exec <name>",
	Short: "Execute a saved request",
	Long: `Execute a saved request, substituting environment variables.

Examples:
  reqbench request exec list-users
  reqbench request exec login --env staging --var USER=ana
  reqbench request exec whoami --auth prod-token`,
	Args: cobra.ExactArgs(1),
	RunE: requestExecCommand,
}

func init() {
	requestSaveCmd.Flags().StringArrayVarP(&requestSaveHeaderFlags, "header", "H", nil, "Request header (\"Key: Value\", repeatable)")
	requestSaveCmd.Flags().StringVarP(&requestSaveDataFlag, "data", "d", "", "Request body")
	requestSaveCmd.Flags().StringArrayVar(&requestSaveParamFlags, "param", nil, "Query parameter (KEY=VALUE, repeatable)")

	requestExecCmd.Flags().StringArrayVar(&requestExecVarFlags, "var", nil, "Variable override (KEY=VALUE, repeatable)")
	requestExecCmd.Flags().StringVar(&requestExecAuthFlag, "auth", "", "Saved auth config to apply")

	requestExportCmd.Flags().StringVar(&requestExportFormatFlag, "format", "json", "Export format (json or postman)")
	requestExportCmd.Flags().StringVarP(&requestExportOutFlag, "output", "o", "", "Write to a file instead of stdout")

	requestCmd.AddCommand(requestSaveCmd)
	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestShowCmd)
	requestCmd.AddCommand(requestDeleteCmd)
	requestCmd.AddCommand(requestExecCmd)
	requestCmd.AddCommand(requestExportCmd)
}

func requestSaveCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(requestSaveHeaderFlags)
	if err != nil {
		return err
	}
	params, err := parsePairs(requestSaveParamFlags)
	if err != nil {
		return err
	}

	def := chain.RequestDefinition{
		Name:    args[0],
		Method:  strings.ToUpper(args[1]),
		URL:     args[2],
		Headers: headers,
		Params:  params,
	}
	if requestSaveDataFlag != "" {
		def.Body = &requestSaveDataFlag
	}

	if err := st.SaveRequest(def); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request %q saved.\n", def.Name)
	return nil
}

func requestListCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	defs, err := st.ListRequests()
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved requests.")
		return nil
	}
	output.RequestTable(cmd.OutOrStdout(), defs)
	return nil
}

func requestShowCommand(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", def.Name, def.Method, def.URL)
	for k, v := range def.Headers {
		fmt.Fprintf(out, "  %s: %s\n", k, v)
	}
	for k, v := range def.Params {
		fmt.Fprintf(out, "  ?%s=%s\n", k, v)
	}
	if def.Body != nil {
		fmt.Fprintf(out, "\n%s\n", *def.Body)
	}
	return nil
}

func requestDeleteCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	existed, err := st.DeleteRequest(args[0])
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("request %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Request %q deleted.\n", args[0])
	return nil
}

func requestExportCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	defs, err := st.ListRequests()
	if err != nil {
		return err
	}

	var data []byte
	switch requestExportFormatFlag {
	case "json":
		data, err = importer.ExportJSON(defs)
	case "postman":
		data, err = importer.ExportPostman("reqbench export", defs)
	default:
		return fmt.Errorf("unknown export format %q (expected json or postman)", requestExportFormatFlag)
	}
	if err != nil {
		return err
	}

	if requestExportOutFlag != "" {
		if err := os.WriteFile(requestExportOutFlag, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d requests to %s\n", len(defs), requestExportOutFlag)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func requestExecCommand(cmd *cobra.Command, args []string) error {
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

	variables, err := resolveVariables(cfg, st, requestExecVarFlags)
	if err != nil {
		return err
	}

	resp, err := runDefinition(cmd.Context(), cfg, st, def, variables, requestExecAuthFlag)
	if err != nil {
		return err
	}
	newFormatter(cfg).FormatResponse(resp)
	return nil
}
